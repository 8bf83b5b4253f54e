package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 quantizes an amount to cents using banker's rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// ApplyTax returns amount increased by rate percent, rounded to cents. A nil
// rate leaves the amount untouched.
func ApplyTax(amount decimal.Decimal, rate *decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return Round2(amount)
	}
	return Round2(amount.Add(amount.Mul(*rate).Div(hundred)))
}

// RatePtr is a convenience for building optional tax rates.
func RatePtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
