package dlmm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityManager/internal/model"
)

const (
	// StrategySpotBalanced spreads liquidity uniformly around the active bin.
	StrategySpotBalanced = "spot_balanced"
	// FullWithdrawBps withdraws every share held in a bin.
	FullWithdrawBps = 10_000
)

// OpenRequest describes a new position around the active bin.
type OpenRequest struct {
	Pool        common.Address
	Owner       common.Address
	AmountX     *big.Int
	AmountY     *big.Int
	MinBinID    int32
	MaxBinID    int32
	SlippageBps int64
}

// OpenTx is an unsigned open-position transaction and the address the position will have.
type OpenTx struct {
	Position common.Address
	Tx       model.TxRequest
}

// CloseRequest withdraws every listed bin, claims fees, and closes the position.
type CloseRequest struct {
	Position common.Address
	Owner    common.Address
	BinIDs   []int32
}

type positionsResponse struct {
	Positions []positionJSON `json:"positions"`
}

type positionJSON struct {
	Address    string    `json:"address"`
	Pool       string    `json:"pool"`
	Owner      string    `json:"owner"`
	LowerBinID int32     `json:"lower_bin_id"`
	UpperBinID int32     `json:"upper_bin_id"`
	Bins       []binJSON `json:"bins"`
}

type binJSON struct {
	BinID     int32  `json:"bin_id"`
	Liquidity string `json:"liquidity"`
	AmountX   string `json:"amount_x"`
	AmountY   string `json:"amount_y"`
}

type openBody struct {
	Pool        string `json:"pool"`
	Owner       string `json:"owner"`
	AmountX     string `json:"amount_x"`
	AmountY     string `json:"amount_y"`
	MinBinID    int32  `json:"min_bin_id"`
	MaxBinID    int32  `json:"max_bin_id"`
	Strategy    string `json:"strategy"`
	SlippageBps int64  `json:"slippage_bps"`
}

type openResponse struct {
	Position string          `json:"position"`
	Tx       model.TxRequest `json:"tx"`
}

type closeBody struct {
	Position      string  `json:"position"`
	Owner         string  `json:"owner"`
	BinIDs        []int32 `json:"bin_ids"`
	Bps           int     `json:"bps"`
	ClaimAndClose bool    `json:"claim_and_close"`
}

type txResponse struct {
	Tx model.TxRequest `json:"tx"`
}
