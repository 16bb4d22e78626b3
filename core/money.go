package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds a monetary value to 2 decimal places, half away from
// zero. Applied after every multiplication so rounding never accumulates
// from unrounded intermediates.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PercentOf returns rate% of amount, rounded to 2 decimal places.
func PercentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(rate).Div(hundred))
}
