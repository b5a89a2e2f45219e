package usecases

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive decimal amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q is not a decimal number", raw)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount %q must be positive", raw)
	}
	return d, nil
}

// ScaleAmount converts a human amount into base units of a token with the
// given decimals. Amounts finer than one base unit are rejected rather than
// truncated.
func ScaleAmount(raw string, decimals uint8) (*big.Int, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return nil, err
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", raw, decimals)
	}
	return scaled.BigInt(), nil
}

// ScaleAmountU64 is ScaleAmount bounded to u64 for SVM token amounts.
func ScaleAmountU64(raw string, decimals uint8) (uint64, error) {
	v, err := ScaleAmount(raw, decimals)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64 at %d decimals", raw, decimals)
	}
	return v.Uint64(), nil
}

// FormatBaseUnits renders base units back as a decimal string.
func FormatBaseUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}
