package common

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// BaseDecimals is the number of decimal places between a whole token and the
// base unit fees are charged in.
const BaseDecimals = 9

var maxBase = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// FromBase converts an amount of base units to whole tokens.
func FromBase(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -BaseDecimals)
}

// ToBase parses a token amount such as "0.01" into base units.
func ToBase(src string) (uint64, error) {
	d, err := decimal.NewFromString(src)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", src, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("bad amount %q: negative", src)
	}
	base := d.Shift(BaseDecimals)
	if !base.Equal(base.Truncate(0)) {
		return 0, fmt.Errorf("bad amount %q: more than %d decimals", src, BaseDecimals)
	}
	if base.GreaterThan(maxBase) {
		return 0, fmt.Errorf("bad amount %q: out of range", src)
	}
	return base.BigInt().Uint64(), nil
}
