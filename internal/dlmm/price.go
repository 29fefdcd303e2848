package dlmm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const priceScaleDigits = 36

var q128 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)

// PriceFromX128 converts a 128.128 fixed-point raw price (token Y units per token X unit)
// into the human price of one whole token X in whole token Y.
func PriceFromX128(priceX128 *big.Int, decimalsX, decimalsY uint8) (decimal.Decimal, error) {
	if priceX128 == nil || priceX128.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid pair price %v", priceX128)
	}
	raw := decimal.NewFromBigInt(priceX128, 0).DivRound(q128, priceScaleDigits)
	return raw.Shift(int32(decimalsX) - int32(decimalsY)), nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func parseAmount(field, value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", field, value)
	}
	return amount, nil
}
