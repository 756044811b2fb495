package payment

import "github.com/shopspring/decimal"

// The three provider families encode the same major-unit amount three
// different ways: integer cents, a two-place decimal string, and int64
// cents. Conversions live here so adapters never re-derive rounding rules.

var centsPerUnit = decimal.NewFromInt(100)

// toMinorUnits converts a major-unit amount to integer minor units,
// rounding half away from zero (19.99 -> 1999).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}

// fromMinorUnits converts integer minor units back to major units.
func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(centsPerUnit)
}

// toAmountString renders a major-unit amount as a decimal string fixed to
// two places (25 -> "25.00"), the wallet provider's wire encoding.
func toAmountString(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
