package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxRequest is an unsigned transaction returned by an external transaction builder.
type TxRequest struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Gas   hexutil.Uint64 `json:"gas,omitempty"`
}

// ValueInt returns the native value attached to the transaction.
func (r TxRequest) ValueInt() *big.Int {
	if r.Value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(r.Value.ToInt())
}
