package dlmm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceFromX128(t *testing.T) {
	// 2.5 in 128.128 fixed point.
	raw := new(big.Int).Lsh(big.NewInt(5), 127)

	got, err := PriceFromX128(raw, 18, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("price mismatch: %s", got)
	}

	// 18-decimal X priced in 6-decimal Y: raw 2.5e-12 per unit is 2.5 per whole token.
	scaled := new(big.Int).Lsh(big.NewInt(5), 127)
	scaled.Div(scaled, new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil))
	got, err = PriceFromX128(scaled, 18, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sub(decimal.RequireFromString("2.5")).Abs().GreaterThan(decimal.RequireFromString("0.000001")) {
		t.Fatalf("scaled price mismatch: %s", got)
	}
}

func TestPriceFromX128RejectsZero(t *testing.T) {
	if _, err := PriceFromX128(big.NewInt(0), 18, 18); err == nil {
		t.Fatalf("expected error for zero price")
	}
}
