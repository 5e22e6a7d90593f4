package ledger

import (
	"strings"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// CalculateTotals sums the complete lines and applies discount then tax.
// Incomplete lines (blank name, quantity below one, negative price) are
// left out. No rounding is applied.
func CalculateTotals(lines []domain.BillLine, discount, tax decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if !lineComplete(line.Name, line.Quantity, line.Price) {
			continue
		}
		subtotal = subtotal.Add(lineTotal(line.Quantity, line.Price))
	}
	discountAmount := domain.Percent(subtotal, discount)
	taxAmount := domain.Percent(subtotal.Sub(discountAmount), tax)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          subtotal.Sub(discountAmount).Add(taxAmount),
	}
}

func lineComplete(name string, quantity int, price decimal.Decimal) bool {
	return strings.TrimSpace(name) != "" && quantity >= 1 && !price.IsNegative()
}

func lineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
