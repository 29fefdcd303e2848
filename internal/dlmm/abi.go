package dlmm

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// pairABIJSON covers the read-only views of a Liquidity Book pair.
const pairABIJSON = `[
  {"inputs": [], "name": "getActiveId", "outputs": [{"name": "activeId", "type": "uint24"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "id", "type": "uint24"}], "name": "getPriceFromId", "outputs": [{"name": "price", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getTokenX", "outputs": [{"name": "tokenX", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getTokenY", "outputs": [{"name": "tokenY", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

var (
	pairABI     abi.ABI
	pairABIOnce sync.Once
	pairABIErr  error
)

// PairABI returns the parsed pair ABI.
func PairABI() (abi.ABI, error) {
	pairABIOnce.Do(func() {
		pairABI, pairABIErr = abi.JSON(strings.NewReader(pairABIJSON))
	})
	return pairABI, pairABIErr
}
