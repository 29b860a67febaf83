package printing

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah formats an amount in Indonesian Rupiah, with thousands
// separators per the id locale
func FormatRupiah(amount decimal.Decimal) string {
	f, _ := amount.Float64()
	return rupiahPrinter.Sprintf("Rp%v", number.Decimal(f, number.MaxFractionDigits(0)))
}

// CompanyInfo is the seller identity printed on invoice headers
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// InvoiceLine is a single item row on the invoice
type InvoiceLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// InvoiceData is the full data set rendered into the invoice document
type InvoiceData struct {
	Number        string
	Date          string
	Company       CompanyInfo
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
	PaymentMethod string
	Paid          bool
	Lines         []InvoiceLine
	Total         decimal.Decimal
	PaymentAmount *decimal.Decimal
	ChangeAmount  decimal.Decimal
}

const invoiceTemplateHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice #{{.Number}}</title>
<style>
  body { font-family: 'Helvetica', 'Arial', sans-serif; font-size: 12px; color: #1f2937; }
  .header { display: flex; justify-content: space-between; margin-bottom: 24px; }
  .company-name { font-size: 20px; font-weight: bold; }
  .company-meta { color: #6b7280; }
  .invoice-title { font-size: 24px; font-weight: bold; text-align: right; }
  .invoice-meta { text-align: right; color: #6b7280; }
  .customer { margin-bottom: 24px; }
  .customer h3 { margin-bottom: 4px; }
  table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
  th { text-align: left; border-bottom: 2px solid #1f2937; padding: 6px 8px; }
  td { border-bottom: 1px solid #e5e7eb; padding: 6px 8px; }
  .num { text-align: right; }
  .totals { width: 40%; margin-left: auto; }
  .totals td { border: none; padding: 4px 8px; }
  .totals .grand td { border-top: 2px solid #1f2937; font-weight: bold; font-size: 14px; }
  .footer { margin-top: 36px; text-align: center; color: #6b7280; }
</style>
</head>
<body>
  <div class="header">
    <div>
      <div class="company-name">{{.Company.Name}}</div>
      <div class="company-meta">{{.Company.Address}}</div>
      <div class="company-meta">{{.Company.Phone}}{{if .Company.Email}} &middot; {{.Company.Email}}{{end}}</div>
    </div>
    <div>
      <div class="invoice-title">INVOICE</div>
      <div class="invoice-meta">#{{.Number}}</div>
      <div class="invoice-meta">{{.Date}}</div>
    </div>
  </div>

  <div class="customer">
    <h3>Billed To</h3>
    <div>{{.CustomerName}}</div>
    {{if .CustomerEmail}}<div>{{.CustomerEmail}}</div>{{end}}
    {{if .CustomerPhone}}<div>{{.CustomerPhone}}</div>{{end}}
  </div>

  <table>
    <thead>
      <tr>
        <th>Item</th>
        <th class="num">Qty</th>
        <th class="num">Unit Price</th>
        <th class="num">Total</th>
      </tr>
    </thead>
    <tbody>
      {{range .Lines}}
      <tr>
        <td>{{.Name}}</td>
        <td class="num">{{.Quantity}}</td>
        <td class="num">{{rupiah .UnitPrice}}</td>
        <td class="num">{{rupiah .Total}}</td>
      </tr>
      {{else}}
      <tr><td colspan="4">No items</td></tr>
      {{end}}
    </tbody>
  </table>

  <table class="totals">
    <tr class="grand"><td>Total</td><td class="num">{{rupiah .Total}}</td></tr>
    {{if .PaymentAmount}}
    <tr><td>Paid ({{.PaymentMethod}})</td><td class="num">{{rupiah .PaymentAmount}}</td></tr>
    <tr><td>Change</td><td class="num">{{rupiah .ChangeAmount}}</td></tr>
    {{else}}
    <tr><td>Payment Method</td><td class="num">{{.PaymentMethod}}</td></tr>
    {{end}}
    <tr><td>Status</td><td class="num">{{if .Paid}}Paid{{else}}Unpaid{{end}}</td></tr>
  </table>

  {{if .Notes}}<div>Notes: {{.Notes}}</div>{{end}}

  <div class="footer">Thank you for your purchase!</div>
</body>
</html>`

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"rupiah": func(v interface{}) (string, error) {
		switch amount := v.(type) {
		case decimal.Decimal:
			return FormatRupiah(amount), nil
		case *decimal.Decimal:
			if amount == nil {
				return FormatRupiah(decimal.Zero), nil
			}
			return FormatRupiah(*amount), nil
		default:
			return "", fmt.Errorf("rupiah: unsupported type %T", v)
		}
	},
}).Parse(invoiceTemplateHTML))

// RenderInvoiceHTML renders the invoice document for the given data
func RenderInvoiceHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invoice template: %w", err)
	}
	return buf.String(), nil
}
