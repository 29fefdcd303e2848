package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityManager/internal/model"
)

const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error
)

// ERC20ABI returns the parsed minimal ERC20 ABI.
func ERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// TokenDecimals returns the token decimals, using an in-memory cache.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	c.mu.RLock()
	decimals, ok := c.decimalsCache[token]
	c.mu.RUnlock()
	if ok {
		return decimals, nil
	}

	values, err := c.callERC20(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok = values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unsupported type %T", values[0])
	}

	c.mu.Lock()
	c.decimalsCache[token] = decimals
	c.mu.Unlock()
	return decimals, nil
}

// TokenBalance returns the account's balance of token.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (model.TokenBalance, error) {
	decimals, err := c.TokenDecimals(ctx, token)
	if err != nil {
		return model.TokenBalance{}, err
	}
	values, err := c.callERC20(ctx, token, "balanceOf", account)
	if err != nil {
		return model.TokenBalance{}, err
	}
	raw, ok := values[0].(*big.Int)
	if !ok {
		return model.TokenBalance{}, fmt.Errorf("balanceOf: unsupported type %T", values[0])
	}
	return model.NewTokenBalance(raw, decimals), nil
}

func (c *Client) callERC20(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, token.Hex(), err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
