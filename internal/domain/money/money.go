// Package money holds the shared currency arithmetic helpers. All amounts in
// the system are decimal.Decimal rupee values rounded to two places at the
// point where they become externally visible.
package money

import "github.com/shopspring/decimal"

// Round2 rounds a currency amount to two decimal places (half up).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FloorAtZero clamps negative values to zero.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
