package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"liquidityManager/internal/model"
)

var targetAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func TestSubmitEstimatesAndPadsGas(t *testing.T) {
	node := newTestNode()
	client := node.start(t, time.Second)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	hash, err := client.Submit(context.Background(), key, model.TxRequest{
		To:    targetAddr,
		Data:  hexutil.Bytes{0xde, 0xad},
		Value: (*hexutil.Big)(big.NewInt(5)),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	sent := node.sentTxs()
	if len(sent) != 1 {
		t.Fatalf("expected one sent tx, got %d", len(sent))
	}
	tx := sent[0]
	if hash != tx.Hash() {
		t.Fatalf("hash mismatch: %s vs %s", hash.Hex(), tx.Hash().Hex())
	}
	if tx.Gas() != 120_000 {
		t.Fatalf("expected padded gas 120000, got %d", tx.Gas())
	}
	if node.count("eth_estimateGas") != 1 {
		t.Fatalf("expected one estimate, got %d", node.count("eth_estimateGas"))
	}
	if tx.Nonce() != 7 || tx.GasPrice().Cmp(big.NewInt(25_000_000_000)) != 0 {
		t.Fatalf("nonce/gas price mismatch: %d %s", tx.Nonce(), tx.GasPrice())
	}
	if *tx.To() != targetAddr || tx.Value().Cmp(big.NewInt(5)) != 0 || hexutil.Encode(tx.Data()) != "0xdead" {
		t.Fatalf("payload mismatch: to=%s value=%s data=%x", tx.To().Hex(), tx.Value(), tx.Data())
	}

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(43114)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("signed by %s", sender.Hex())
	}
}

func TestSubmitKeepsExplicitGas(t *testing.T) {
	node := newTestNode()
	client := node.start(t, time.Second)
	key, _ := crypto.GenerateKey()

	if _, err := client.Submit(context.Background(), key, model.TxRequest{To: targetAddr, Gas: 300_000}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if node.count("eth_estimateGas") != 0 {
		t.Fatalf("explicit gas should skip estimation")
	}
	if got := node.sentTxs()[0].Gas(); got != 300_000 {
		t.Fatalf("gas mismatch: %d", got)
	}
}

func TestSubmitRevertedReceipt(t *testing.T) {
	node := newTestNode()
	node.receiptStatus = types.ReceiptStatusFailed
	client := node.start(t, time.Second)
	key, _ := crypto.GenerateKey()

	hash, err := client.Submit(context.Background(), key, model.TxRequest{To: targetAddr, Gas: 50_000})
	if !errors.Is(err, ErrReverted) {
		t.Fatalf("expected ErrReverted, got %v", err)
	}
	if hash == (common.Hash{}) || hash != node.sentTxs()[0].Hash() {
		t.Fatalf("reverted submit should still report the tx hash, got %s", hash.Hex())
	}
}

func TestSubmitConfirmTimeout(t *testing.T) {
	node := newTestNode()
	node.withholdReceipt = true
	client := node.start(t, 50*time.Millisecond)
	key, _ := crypto.GenerateKey()

	start := time.Now()
	_, err := client.Submit(context.Background(), key, model.TxRequest{To: targetAddr, Gas: 50_000})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if errors.Is(err, ErrReverted) {
		t.Fatalf("a pending tx is not a revert")
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Fatalf("confirm timeout not honored, took %s", elapsed)
	}
}

func TestSubmitRequiresKey(t *testing.T) {
	node := newTestNode()
	client := node.start(t, time.Second)

	if _, err := client.Submit(context.Background(), nil, model.TxRequest{To: targetAddr}); err == nil {
		t.Fatalf("expected error for nil key")
	}
	if node.count("eth_sendRawTransaction") != 0 {
		t.Fatalf("nothing should be sent without a key")
	}
}

func TestChainIDCached(t *testing.T) {
	node := newTestNode()
	client := node.start(t, time.Second)

	for i := 0; i < 3; i++ {
		id, err := client.ChainID(context.Background())
		if err != nil {
			t.Fatalf("chain id: %v", err)
		}
		if id.Int64() != 43114 {
			t.Fatalf("chain id mismatch: %s", id)
		}
	}
	if node.count("eth_chainId") != 1 {
		t.Fatalf("expected a single eth_chainId call, got %d", node.count("eth_chainId"))
	}
}

func TestNativeBalance(t *testing.T) {
	node := newTestNode()
	node.native = new(big.Int).Mul(big.NewInt(3), big.NewInt(1e17))
	client := node.start(t, time.Second)

	got, err := client.NativeBalance(context.Background(), targetAddr)
	if err != nil {
		t.Fatalf("native balance: %v", err)
	}
	if got.Cmp(node.native) != 0 {
		t.Fatalf("balance mismatch: %s", got)
	}
}
