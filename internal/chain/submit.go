package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"liquidityManager/internal/model"
)

// ErrReverted is returned when a submitted transaction is mined with a failed status.
var ErrReverted = errors.New("transaction reverted")

// Submit signs req with key, sends it, and waits for a successful receipt.
func (c *Client) Submit(ctx context.Context, key *ecdsa.PrivateKey, req model.TxRequest) (common.Hash, error) {
	if key == nil {
		return common.Hash{}, fmt.Errorf("signing key is nil")
	}
	signed, err := c.signTx(ctx, key, req)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.ethClient.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.ethClient, signed)
	if err != nil {
		return signed.Hash(), fmt.Errorf("wait for %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed.Hash(), fmt.Errorf("%w: %s", ErrReverted, signed.Hash().Hex())
	}
	return signed.Hash(), nil
}

func (c *Client) signTx(ctx context.Context, key *ecdsa.PrivateKey, req model.TxRequest) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	nonce, err := c.ethClient.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}

	value := req.ValueInt()
	gasLimit := uint64(req.Gas)
	if gasLimit == 0 {
		to := req.To
		estimated, err := c.ethClient.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Data:  req.Data,
			Value: value,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		gasLimit = padGas(estimated)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &req.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// padGas adds 20% headroom to an estimate.
func padGas(estimated uint64) uint64 {
	padded := new(big.Int).SetUint64(estimated)
	padded.Mul(padded, big.NewInt(12))
	padded.Div(padded, big.NewInt(10))
	return padded.Uint64()
}
