package rebalance

import (
	"math/big"

	"github.com/shopspring/decimal"

	"liquidityManager/internal/model"
)

// ImbalanceThreshold is the share of total value the two sides may differ by before a swap.
var ImbalanceThreshold = decimal.RequireFromString("0.05")

// Direction is the swap leg a plan requires.
type Direction int

const (
	NoSwap Direction = iota
	SellToken0
	SellToken1
)

func (d Direction) String() string {
	switch d {
	case SellToken0:
		return "token0->token1"
	case SellToken1:
		return "token1->token0"
	default:
		return "none"
	}
}

// Plan is the swap needed to bring both sides to equal value.
type Plan struct {
	Direction Direction
	// Amount is the human amount of the input token to sell.
	Amount decimal.Decimal
	// RawAmount is Amount in the input token's raw units, rounded down.
	RawAmount *big.Int
	Value0    decimal.Decimal
	Value1    decimal.Decimal
}

// ComputePlan values both balances in token1 at price (token1 per token0) and
// returns the swap that restores a 50/50 split, or NoSwap inside the threshold.
func ComputePlan(balance0, balance1 model.TokenBalance, price decimal.Decimal) Plan {
	value0 := balance0.Amount.Mul(price)
	value1 := balance1.Amount
	plan := Plan{Direction: NoSwap, Amount: decimal.Zero, RawAmount: big.NewInt(0), Value0: value0, Value1: value1}

	total := value0.Add(value1)
	if !total.IsPositive() || !price.IsPositive() {
		return plan
	}
	target := total.Div(decimal.NewFromInt(2))

	switch {
	case value0.Sub(value1).Div(total).GreaterThan(ImbalanceThreshold):
		plan.Direction = SellToken0
		plan.Amount = value0.Sub(target).Div(price)
		plan.RawAmount = model.ToRaw(plan.Amount, balance0.Decimals)
	case value1.Sub(value0).Div(total).GreaterThan(ImbalanceThreshold):
		plan.Direction = SellToken1
		plan.Amount = value1.Sub(target)
		plan.RawAmount = model.ToRaw(plan.Amount, balance1.Decimals)
	}
	if plan.Direction != NoSwap && plan.RawAmount.Sign() == 0 {
		plan.Direction = NoSwap
	}
	return plan
}
