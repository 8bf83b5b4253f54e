package invoicing

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"billing/internal/domain"
)

// FormatAmount prints amount with the currency symbol for lang. Unknown
// currency codes fall back to "<amount> <code>".
func FormatAmount(lang language.Tag, code string, amount decimal.Decimal) string {
	p := message.NewPrinter(lang)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	return p.Sprint(currency.Symbol(unit.Amount(amount.InexactFloat64())))
}

const documentTemplate = `{{.Title}} {{.Invoice.FullNumber}}
Issued: {{.Invoice.Issued.Format "2006-01-02"}}
Payment date: {{.Invoice.PaymentDate.Format "2006-01-02"}}

Seller:
  {{.Invoice.IssuerName}}
  {{.Invoice.IssuerStreet}}
  {{.Invoice.IssuerZipcode}} {{.Invoice.IssuerCity}}, {{.Invoice.IssuerCountry}}
  Tax number: {{.Invoice.IssuerTaxNumber}}

Buyer:
  {{.Invoice.BuyerName}}
  {{.Invoice.BuyerStreet}}
  {{.Invoice.BuyerZipcode}} {{.Invoice.BuyerCity}}, {{.Invoice.BuyerCountry}}
{{- if .Invoice.BuyerTaxNumber}}
  Tax number: {{.Invoice.BuyerTaxNumber}}
{{- end}}
{{- if .Invoice.RequireShipment}}

Ship to:
  {{.Invoice.ShippingName}}
  {{.Invoice.ShippingStreet}}
  {{.Invoice.ShippingZipcode}} {{.Invoice.ShippingCity}}, {{.Invoice.ShippingCountry}}
{{- end}}

{{.Invoice.Quantity}} x {{.Invoice.ItemDescription}}  {{.UnitPrice}}

Net:   {{.Net}}
Tax:   {{.TaxLabel}} {{.TaxTotal}}
Total: {{.Total}}
`

var document = template.Must(template.New("invoice").Parse(documentTemplate))

type documentData struct {
	Title     string
	Invoice   domain.Invoice
	UnitPrice string
	Net       string
	TaxLabel  string
	TaxTotal  string
	Total     string
}

// Render produces the plain-text document of an invoice.
func Render(lang language.Tag, inv domain.Invoice) ([]byte, error) {
	title := "Invoice"
	switch inv.Type {
	case domain.InvoiceTypeProforma:
		title = "Proforma invoice"
	case domain.InvoiceTypeDuplicate:
		title = "Invoice (duplicate)"
	}
	taxLabel := "(reverse charge / not applicable)"
	if inv.Tax != nil {
		taxLabel = fmt.Sprintf("(%s%%)", inv.Tax.String())
	}
	var buf bytes.Buffer
	err := document.Execute(&buf, documentData{
		Title:     title,
		Invoice:   inv,
		UnitPrice: FormatAmount(lang, inv.Currency, inv.UnitPriceNet),
		Net:       FormatAmount(lang, inv.Currency, inv.TotalNet),
		TaxLabel:  taxLabel,
		TaxTotal:  FormatAmount(lang, inv.Currency, inv.TaxTotal),
		Total:     FormatAmount(lang, inv.Currency, inv.Total),
	})
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.ID, err)
	}
	return buf.Bytes(), nil
}
