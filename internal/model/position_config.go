package model

import "time"

// PositionConfig is a stored liquidity-management record for one pool.
type PositionConfig struct {
	ID                         int64     `json:"id"`
	Owner                      string    `json:"owner"`
	Account                    string    `json:"account"`
	Credential                 string    `json:"-"`
	RPC                        string    `json:"rpc"`
	Pool                       string    `json:"pool"`
	Token0                     string    `json:"token0"`
	Token1                     string    `json:"token1"`
	TotalBinRange              int       `json:"total_bin_range"`
	RebalanceSlippage          float64   `json:"rebalance_slippage"`
	PoolSlippage               float64   `json:"pool_slippage"`
	RebalanceMaxAttempts       int       `json:"rebalance_max_attempts"`
	AddLiquidityMaxAttempts    int       `json:"add_liquidity_max_attempts"`
	RemoveLiquidityMaxAttempts int       `json:"remove_liquidity_max_attempts"`
	CreatedAt                  time.Time `json:"created_at"`
}

// BinsPerSide returns the half range used on each side of the active bin.
func (c PositionConfig) BinsPerSide() int32 {
	return int32(c.TotalBinRange / 2)
}
