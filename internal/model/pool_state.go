package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PoolState is the live trading state of a bin-based pool.
type PoolState struct {
	Pool        common.Address
	TokenX      common.Address
	TokenY      common.Address
	DecimalsX   uint8
	DecimalsY   uint8
	ActiveBinID int32
	// ActivePrice is the price of one whole token X in whole token Y.
	ActivePrice decimal.Decimal
}

// AmountYFor returns the raw token Y amount worth rawX of token X at the active price, rounded down.
func (s PoolState) AmountYFor(rawX *big.Int) *big.Int {
	if rawX == nil || rawX.Sign() <= 0 {
		return big.NewInt(0)
	}
	shift := int32(s.DecimalsY) - int32(s.DecimalsX)
	amount := decimal.NewFromBigInt(rawX, 0).Mul(s.ActivePrice).Shift(shift).Floor()
	return amount.BigInt()
}

// BinLiquidity is the share a position holds in a single bin.
type BinLiquidity struct {
	BinID     int32
	Liquidity *big.Int
	AmountX   *big.Int
	AmountY   *big.Int
}

// AccountPosition is a liquidity position owned by an account in one pool.
type AccountPosition struct {
	Address    common.Address
	Pool       common.Address
	Owner      common.Address
	LowerBinID int32
	UpperBinID int32
	Bins       []BinLiquidity
}

// InRange reports whether activeBinID lies inside the position's bin range, bounds included.
func (p AccountPosition) InRange(activeBinID int32) bool {
	return p.LowerBinID <= activeBinID && activeBinID <= p.UpperBinID
}

// BinIDs lists every bin the position holds liquidity in.
func (p AccountPosition) BinIDs() []int32 {
	ids := make([]int32, 0, len(p.Bins))
	for _, bin := range p.Bins {
		ids = append(ids, bin.BinID)
	}
	return ids
}
