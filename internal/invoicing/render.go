package invoicing

import (
	"bytes"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stitchdesk/stitchdesk/internal/ledger"
)

var amountPrinter = message.NewPrinter(language.English)

func formatAmount(v float64) string {
	return amountPrinter.Sprintf("₹%.2f", v)
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"amount": formatAmount,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 January 2006")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: sans-serif; margin: 2em; color: #222; }
  h1 { font-size: 1.4em; }
  table { width: 100%; border-collapse: collapse; margin-top: 1em; }
  th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
  .totals td { border: none; text-align: right; }
  .state { text-transform: uppercase; letter-spacing: 1px; }
</style>
</head>
<body>
  <h1>{{.ShopName}}</h1>
  <p>Invoice <strong>{{.Invoice.Number}}</strong> &mdash; <span class="state">{{.State}}</span></p>
  <p>Billed to: {{.Order.CustomerName}}<br>
     Generated: {{date .Invoice.GeneratedAt}}<br>
     Due: {{date .Invoice.DueAt}}</p>

  <table>
    <tr><th>Garment</th><th>Qty</th><th>Notes</th></tr>
    {{range .Order.Garments}}
    <tr><td>{{.GarmentType}}</td><td>{{.Quantity}}</td><td>{{.Notes}}</td></tr>
    {{end}}
  </table>

  <table class="totals">
    <tr><td>Total</td><td>{{amount .Order.TotalAmount}}</td></tr>
    <tr><td>Paid</td><td>{{amount .Order.AdvancePaid}}</td></tr>
    <tr><td><strong>Balance due</strong></td><td><strong>{{amount .Order.PendingAmount}}</strong></td></tr>
  </table>

  {{if .Payments}}
  <table>
    <tr><th>Receipt</th><th>Date</th><th>Mode</th><th>Amount</th></tr>
    {{range .Payments}}
    <tr><td>{{.Number}}</td><td>{{date .PaidAt}}</td><td>{{.Mode}}</td><td>{{amount .Amount}}</td></tr>
    {{end}}
  </table>
  {{end}}
</body>
</html>`))

type invoicePage struct {
	ShopName string
	State    string
	Invoice  *ledger.Invoice
	Order    *ledger.Order
	Payments []ledger.Payment
}

func renderInvoiceHTML(shopName string, detail *ledger.OrderDetail, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := invoiceTmpl.Execute(&buf, invoicePage{
		ShopName: shopName,
		State:    detail.Invoice.DisplayState(now),
		Invoice:  detail.Invoice,
		Order:    detail.Order,
		Payments: detail.Payments,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
