// Package core provides the domain model shared by storage, services and HTTP.
//
// This file contains amount parsing. Amounts are decimals in the record's own
// currency; no conversion between currencies is ever performed.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string into a decimal.Decimal.
//
// Both dot (12.34) and comma (12,34) separators are accepted. The sign is
// left to the caller: negative values parse fine.
//
// Examples:
//
//	ParseAmount("12.5")  -> 12.5, nil
//	ParseAmount("12,50") -> 12.5, nil
//	ParseAmount("-3")    -> -3, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
//	ParseAmount("1e400") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if !storable(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Order-of-magnitude bounds for amounts: the float64 range of the cost and
// amount columns, down to its smallest subnormal.
const (
	maxAmountMagnitude = 308
	minAmountMagnitude = -324
)

// storable reports whether d converts to a finite float64. The magnitude is
// checked first since the conversion expands the exponent into a big.Int.
func storable(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	mag := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	if mag > maxAmountMagnitude || mag < minAmountMagnitude {
		return false
	}
	f := d.InexactFloat64()
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
