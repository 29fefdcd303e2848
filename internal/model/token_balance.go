package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenBalance is an on-chain balance in raw units with its human-readable form.
type TokenBalance struct {
	Raw      *big.Int
	Decimals uint8
	Amount   decimal.Decimal
}

// NewTokenBalance builds a TokenBalance from a raw amount and the token decimals.
func NewTokenBalance(raw *big.Int, decimals uint8) TokenBalance {
	if raw == nil {
		raw = big.NewInt(0)
	}
	return TokenBalance{
		Raw:      new(big.Int).Set(raw),
		Decimals: decimals,
		Amount:   decimal.NewFromBigInt(raw, -int32(decimals)),
	}
}

// ToRaw converts a human amount to raw units, rounding down.
func ToRaw(amount decimal.Decimal, decimals uint8) *big.Int {
	if !amount.IsPositive() {
		return big.NewInt(0)
	}
	return amount.Shift(int32(decimals)).Floor().BigInt()
}

// SlippageBps converts a slippage fraction (0.005 = 0.5%) to basis points, rounding down.
func SlippageBps(fraction float64) int64 {
	if fraction <= 0 {
		return 0
	}
	return decimal.NewFromFloat(fraction).Shift(4).Floor().IntPart()
}
