package invoicing

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"billing/internal/domain"
)

func TestFormatterFullNumber(t *testing.T) {
	issued := day(2010, 5, 30)
	tests := []struct {
		name   string
		format string
		typ    domain.InvoiceType
		want   string
	}{
		{"default untyped", "", "", "123/FV/05/2010"},
		{"invoice", "", domain.InvoiceTypeInvoice, "123/FV/05/2010"},
		{"duplicate", "", domain.InvoiceTypeDuplicate, "123/FV/05/2010"},
		{"proforma", "", domain.InvoiceTypeProforma, "123/PF/05/2010"},
		{"custom", `{{.Issued.Format "2006"}}.{{.Number}}.{{.Issued.Format "01"}}`, domain.InvoiceTypeInvoice, "2010.123.05"},
		{"date letters", `{{date .Issued "Y"}}.{{.Number}}.{{date .Issued "m"}}`, domain.InvoiceTypeInvoice, "2010.123.05"},
		{"proforma flag", `{{if .Proforma}}P{{else}}F{{end}}-{{.Number}}`, domain.InvoiceTypeProforma, "P-123"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFormatter(tc.format)
			if err != nil {
				t.Fatalf("NewFormatter error: %v", err)
			}
			got, err := f.Format(domain.Invoice{Number: 123, Type: tc.typ, Issued: issued})
			if err != nil {
				t.Fatalf("Format error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Format = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewFormatterRejectsBrokenTemplate(t *testing.T) {
	if _, err := NewFormatter("{{.Number"); !errors.Is(err, domain.ErrImproperlyConfigured) {
		t.Fatalf("NewFormatter error = %v, want ErrImproperlyConfigured", err)
	}
}

func TestRenderDocument(t *testing.T) {
	inv := domain.Invoice{
		ID:              "inv-1",
		FullNumber:      "1/FV/05/2010",
		Type:            domain.InvoiceTypeInvoice,
		Issued:          day(2010, 5, 3),
		PaymentDate:     day(2010, 5, 3),
		ItemDescription: "Plan Pro (30 days)",
		Quantity:        1,
		Currency:        "EUR",
		Tax:             domain.RatePtr("23"),
		IssuerName:      "Acme",
		BuyerName:       "Jan Kowalski",
		BuyerTaxNumber:  "PL123",
	}
	out, err := Render(language.English, inv)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	doc := string(out)
	for _, want := range []string{"Invoice 1/FV/05/2010", "Jan Kowalski", "Tax number: PL123", "Plan Pro (30 days)", "(23%)"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "Ship to:") {
		t.Fatalf("document should not contain shipping block:\n%s", doc)
	}
}
