// Package core holds the domain model: members, categories, split
// strategies, expenses and the monthly share aggregate.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingEpsilon is the tolerance used when comparing monetary totals
// that were produced by independently rounding each share.
var RoundingEpsilon = decimal.NewFromFloat(0.01)

// ParseAmount converts a user-supplied decimal string to a positive amount.
// Both dot (12.34) and comma (12,34) separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Round2 rounds a monetary value to two decimal places, half up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinEpsilon reports whether two amounts differ by no more than the
// rounding tolerance.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(RoundingEpsilon)
}
