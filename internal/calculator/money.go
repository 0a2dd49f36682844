package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrAmountOutOfRange is returned when an amount or a running balance does
// not fit in int64 minor units.
var ErrAmountOutOfRange = errors.New("amount out of range")

var hundred = decimal.NewFromInt(100)

// ToCents converts a currency amount to minor units, rounding to the nearest unit.
func ToCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred).Round(0).BigInt()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount.String())
	}
	return cents.Int64(), nil
}

// FormatCents renders minor units as a decimal string with exactly two places.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func addCents(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrAmountOutOfRange
	}
	return sum, nil
}

func subCents(a, b int64) (int64, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, ErrAmountOutOfRange
	}
	return diff, nil
}
