package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// testNode answers the JSON-RPC methods the client uses.
type testNode struct {
	chainID  int64
	nonce    uint64
	gasPrice int64
	estimate uint64

	// receiptStatus is reported for every sent transaction; withholdReceipt keeps them pending.
	receiptStatus   uint64
	withholdReceipt bool

	native   *big.Int
	decimals map[common.Address]uint8
	balances map[common.Address]*big.Int

	mu    sync.Mutex
	calls map[string]int
	sent  []*types.Transaction
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

func newTestNode() *testNode {
	return &testNode{
		chainID:       43114,
		nonce:         7,
		gasPrice:      25_000_000_000,
		estimate:      100_000,
		receiptStatus: types.ReceiptStatusSuccessful,
		native:        big.NewInt(0),
		decimals:      map[common.Address]uint8{},
		balances:      map[common.Address]*big.Int{},
		calls:         map[string]int{},
	}
}

// start serves the node over HTTP and returns a Client dialed to it.
func (n *testNode) start(t *testing.T, confirmTimeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL, confirmTimeout)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func (n *testNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *testNode) sentTxs() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

func (n *testNode) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	result, err := n.handle(req)
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
	if err != nil {
		resp.Result = nil
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *testNode) handle(req rpcRequest) (interface{}, error) {
	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeBig(big.NewInt(n.chainID)), nil
	case "eth_getTransactionCount":
		return hexutil.EncodeUint64(n.nonce), nil
	case "eth_gasPrice":
		return hexutil.EncodeBig(big.NewInt(n.gasPrice)), nil
	case "eth_getBalance":
		return hexutil.EncodeBig(n.native), nil
	case "eth_estimateGas":
		return hexutil.EncodeUint64(n.estimate), nil
	case "eth_sendRawTransaction":
		var raw string
		if err := json.Unmarshal(req.Params[0], &raw); err != nil {
			return nil, err
		}
		data, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		n.sent = append(n.sent, tx)
		return tx.Hash().Hex(), nil
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := json.Unmarshal(req.Params[0], &hash); err != nil {
			return nil, err
		}
		if n.withholdReceipt {
			return nil, nil
		}
		return map[string]interface{}{
			"type":              "0x0",
			"status":            hexutil.EncodeUint64(n.receiptStatus),
			"cumulativeGasUsed": "0x5208",
			"gasUsed":           "0x5208",
			"logsBloom":         hexutil.Encode(make([]byte, types.BloomByteLength)),
			"logs":              []interface{}{},
			"transactionHash":   hash.Hex(),
			"blockHash":         common.HexToHash("0xb1").Hex(),
			"blockNumber":       "0x10",
			"transactionIndex":  "0x0",
		}, nil
	case "eth_call":
		return n.call(req.Params[0])
	default:
		return nil, fmt.Errorf("method %s not supported", req.Method)
	}
}

func (n *testNode) call(param json.RawMessage) (interface{}, error) {
	var msg struct {
		To    common.Address `json:"to"`
		Input hexutil.Bytes  `json:"input"`
		Data  hexutil.Bytes  `json:"data"`
	}
	if err := json.Unmarshal(param, &msg); err != nil {
		return nil, err
	}
	input := msg.Input
	if len(input) == 0 {
		input = msg.Data
	}
	if len(input) < 4 {
		return nil, fmt.Errorf("short call data")
	}

	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(input[:4])
	if err != nil {
		return nil, err
	}
	n.calls["eth_call:"+method.Name]++

	var out []byte
	switch method.Name {
	case "decimals":
		decimals, ok := n.decimals[msg.To]
		if !ok {
			return nil, fmt.Errorf("execution reverted")
		}
		out, err = method.Outputs.Pack(decimals)
	case "balanceOf":
		args, uerr := method.Inputs.Unpack(input[4:])
		if uerr != nil {
			return nil, uerr
		}
		account := args[0].(common.Address)
		balance := n.balances[account]
		if balance == nil {
			balance = big.NewInt(0)
		}
		out, err = method.Outputs.Pack(balance)
	default:
		return nil, fmt.Errorf("unexpected method %s", method.Name)
	}
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(out), nil
}
