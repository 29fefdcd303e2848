package rebalance

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"liquidityManager/internal/model"
)

func human(raw int64, decimals uint8) model.TokenBalance {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return model.NewTokenBalance(new(big.Int).Mul(big.NewInt(raw), scale), decimals)
}

func TestComputePlanSellsExcessToken0(t *testing.T) {
	plan := ComputePlan(human(150, 6), human(100, 6), decimal.NewFromInt(1))
	if plan.Direction != SellToken0 {
		t.Fatalf("expected token0 sale, got %s", plan.Direction)
	}
	if !plan.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("amount mismatch: %s", plan.Amount)
	}
	if plan.RawAmount.Cmp(big.NewInt(25_000_000)) != 0 {
		t.Fatalf("raw amount mismatch: %s", plan.RawAmount)
	}
}

func TestComputePlanConvertsValueAtPrice(t *testing.T) {
	// 100 token0 at 2.0 is 200 of value against 100 token1; sell 25 token0.
	plan := ComputePlan(human(100, 18), human(100, 6), decimal.NewFromInt(2))
	if plan.Direction != SellToken0 || !plan.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected plan: %s %s", plan.Direction, plan.Amount)
	}
	want, _ := new(big.Int).SetString("25000000000000000000", 10)
	if plan.RawAmount.Cmp(want) != 0 {
		t.Fatalf("raw amount mismatch: %s", plan.RawAmount)
	}
}

func TestComputePlanWithinThreshold(t *testing.T) {
	plan := ComputePlan(human(105, 6), human(100, 6), decimal.NewFromInt(1))
	if plan.Direction != NoSwap {
		t.Fatalf("expected no swap, got %s", plan.Direction)
	}
}

func TestComputePlanSellsExcessToken1(t *testing.T) {
	plan := ComputePlan(human(100, 6), human(150, 6), decimal.NewFromInt(1))
	if plan.Direction != SellToken1 || !plan.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected plan: %s %s", plan.Direction, plan.Amount)
	}
}

func TestComputePlanZeroTotal(t *testing.T) {
	plan := ComputePlan(human(0, 6), human(0, 6), decimal.NewFromInt(1))
	if plan.Direction != NoSwap || plan.RawAmount.Sign() != 0 {
		t.Fatalf("expected no swap for empty account")
	}
}
