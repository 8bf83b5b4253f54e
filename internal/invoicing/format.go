package invoicing

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"billing/internal/domain"
)

// DefaultNumberFormat renders numbers such as 123/FV/05/2010.
const DefaultNumberFormat = `{{.Number}}/{{.Code}}/{{.Issued.Format "01/2006"}}`

const (
	codeInvoice  = "FV"
	codeProforma = "PF"
)

type numberData struct {
	Number   int64
	Type     domain.InvoiceType
	Code     string
	Proforma bool
	Issued   time.Time
}

// Formatter turns an invoice number and issue date into its display number.
type Formatter struct {
	tmpl *template.Template
}

// NewFormatter compiles the number template. The template sees Number, Type,
// Code (PF or FV), Proforma and Issued, plus a date function taking
// d/j/m/n/Y/y letters, e.g. {{date .Issued "m/Y"}}.
func NewFormatter(format string) (*Formatter, error) {
	if strings.TrimSpace(format) == "" {
		format = DefaultNumberFormat
	}
	tmpl, err := template.New("invoice_number").
		Option("missingkey=error").
		Funcs(template.FuncMap{"date": formatDate}).
		Parse(format)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice number format: %v", domain.ErrImproperlyConfigured, err)
	}
	return &Formatter{tmpl: tmpl}, nil
}

// MustFormatter is NewFormatter for static formats.
func MustFormatter(format string) *Formatter {
	f, err := NewFormatter(format)
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders the display number of inv.
func (f *Formatter) Format(inv domain.Invoice) (string, error) {
	code := codeInvoice
	if inv.Type == domain.InvoiceTypeProforma {
		code = codeProforma
	}
	var buf bytes.Buffer
	err := f.tmpl.Execute(&buf, numberData{
		Number:   inv.Number,
		Type:     inv.Type,
		Code:     code,
		Proforma: inv.Type == domain.InvoiceTypeProforma,
		Issued:   inv.Issued,
	})
	if err != nil {
		return "", fmt.Errorf("format invoice number: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

var dateLetters = map[rune]string{
	'd': "02",
	'j': "2",
	'm': "01",
	'n': "1",
	'Y': "2006",
	'y': "06",
}

func formatDate(t time.Time, pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		if layout, ok := dateLetters[r]; ok {
			b.WriteString(t.Format(layout))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
