// Package invoice renders a printable HTML invoice for a bill.
package invoice

import (
	"fmt"
	"html/template"
	"io"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

var page = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + domain.FormatMoney(d) },
	"rate":  func(d decimal.Decimal) string { return d.String() },
	"date":  func(b domain.Bill) string { return b.CreatedAt.Format("2006-01-02") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice - {{.Bill.BillNumber}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
.header { text-align: center; margin-bottom: 30px; }
.company-info, .customer-info { margin-bottom: 20px; }
.items-table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
.items-table th, .items-table td { border: 1px solid #ddd; padding: 8px; text-align: left; }
.items-table th { background-color: #f2f2f2; font-weight: bold; }
.totals { text-align: right; margin-bottom: 20px; }
.total-final { font-weight: bold; font-size: 1.1em; border-top: 1px solid #ddd; padding-top: 5px; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<div class="header">
<h1>INVOICE</h1>
<p><strong>Bill #:</strong> {{.Bill.BillNumber}}</p>
<p><strong>Date:</strong> {{date .Bill}}</p>
</div>
<div class="company-info">
<h3>{{.Company.CompanyName}}</h3>
<p>{{.Company.CompanyAddress}}</p>
<p><strong>Phone:</strong> {{.Company.CompanyPhone}}</p>
<p><strong>Email:</strong> {{.Company.CompanyEmail}}</p>
</div>
<div class="customer-info">
<h3>Bill To:</h3>
<p><strong>{{.Bill.CustomerName}}</strong></p>
{{- if .Bill.CustomerPhone}}
<p><strong>Phone:</strong> {{.Bill.CustomerPhone}}</p>
{{- end}}
{{- if .Bill.CustomerAddress}}
<p><strong>Address:</strong> {{.Bill.CustomerAddress}}</p>
{{- end}}
</div>
<table class="items-table">
<thead><tr><th>Item</th><th>Quantity</th><th>Price</th><th>Total</th></tr></thead>
<tbody>
{{- range .Bill.Items}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{money .Price}}</td><td>{{money .Total}}</td></tr>
{{- end}}
</tbody>
</table>
<div class="totals">
<div class="total-row">Subtotal: {{money .Bill.Subtotal}}</div>
<div class="total-row">Discount ({{rate .Bill.Discount}}%): -{{money .Bill.DiscountAmount}}</div>
<div class="total-row">Tax ({{rate .Bill.Tax}}%): {{money .Bill.TaxAmount}}</div>
<div class="total-row total-final">Total: {{money .Bill.Total}}</div>
</div>
{{- if .Bill.Notes}}
<div class="notes">
<h3>Notes:</h3>
<p>{{.Bill.Notes}}</p>
</div>
{{- end}}
</body>
</html>
`))

// Render writes the invoice for bill using the company block from settings.
func Render(w io.Writer, bill domain.Bill, company domain.Settings) error {
	data := struct {
		Bill    domain.Bill
		Company domain.Settings
	}{bill, company}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render invoice %s: %w", bill.BillNumber, err)
	}
	return nil
}
