package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent returns base * pct / 100 at full precision.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// RoundMoney rounds half away from zero to two places. Use only when
// displaying or exporting amounts.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
