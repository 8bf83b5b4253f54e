package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes regular invoices from their copies and from
// proforma documents issued before payment.
type InvoiceType string

const (
	InvoiceTypeInvoice   InvoiceType = "INVOICE"
	InvoiceTypeDuplicate InvoiceType = "DUPLICATE"
	InvoiceTypeProforma  InvoiceType = "PROFORMA"
)

// Valid reports whether t is a known invoice type.
func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeInvoice, InvoiceTypeDuplicate, InvoiceTypeProforma:
		return true
	}
	return false
}

// IssuerData is the seller identity printed on every invoice.
type IssuerData struct {
	Name      string `json:"name"`
	Street    string `json:"street"`
	Zipcode   string `json:"zipcode"`
	City      string `json:"city"`
	Country   string `json:"country"`
	TaxNumber string `json:"tax_number"`
}

// Validate fails when any issuer field is missing.
func (d IssuerData) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"name":       d.Name,
		"street":     d.Street,
		"zipcode":    d.Zipcode,
		"city":       d.City,
		"country":    d.Country,
		"tax_number": d.TaxNumber,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: issuer data missing %s", ErrImproperlyConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// Invoice is an immutable snapshot of an order at issuance time.
type Invoice struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	OrderID         string           `json:"order_id"`
	Number          int64            `json:"number"`
	FullNumber      string           `json:"full_number"`
	WindowKey       string           `json:"-"`
	Type            InvoiceType      `json:"type"`
	Issued          time.Time        `json:"issued"`
	SellingDate     *time.Time       `json:"selling_date,omitempty"`
	PaymentDate     time.Time        `json:"payment_date"`
	ItemDescription string           `json:"item_description"`
	Quantity        int              `json:"quantity"`
	UnitPriceNet    decimal.Decimal  `json:"unit_price_net"`
	TotalNet        decimal.Decimal  `json:"total_net"`
	Total           decimal.Decimal  `json:"total"`
	TaxTotal        decimal.Decimal  `json:"tax_total"`
	Tax             *decimal.Decimal `json:"tax"`
	Currency        string           `json:"currency"`

	BuyerName      string `json:"buyer_name"`
	BuyerStreet    string `json:"buyer_street"`
	BuyerZipcode   string `json:"buyer_zipcode"`
	BuyerCity      string `json:"buyer_city"`
	BuyerCountry   string `json:"buyer_country"`
	BuyerTaxNumber string `json:"buyer_tax_number,omitempty"`

	ShippingName    string `json:"shipping_name,omitempty"`
	ShippingStreet  string `json:"shipping_street,omitempty"`
	ShippingZipcode string `json:"shipping_zipcode,omitempty"`
	ShippingCity    string `json:"shipping_city,omitempty"`
	ShippingCountry string `json:"shipping_country,omitempty"`
	RequireShipment bool   `json:"require_shipment"`

	IssuerName      string `json:"issuer_name"`
	IssuerStreet    string `json:"issuer_street"`
	IssuerZipcode   string `json:"issuer_zipcode"`
	IssuerCity      string `json:"issuer_city"`
	IssuerCountry   string `json:"issuer_country"`
	IssuerTaxNumber string `json:"issuer_tax_number"`

	CreatedAt time.Time `json:"created_at"`
}

// CopyFromOrder snapshots the amounts of o as a single invoice line.
func (i *Invoice) CopyFromOrder(o Order, description string) {
	i.OrderID = o.ID
	i.UserID = o.UserID
	i.ItemDescription = description
	i.Quantity = 1
	i.UnitPriceNet = o.Amount
	i.TotalNet = o.Amount
	i.Total = o.Total()
	i.TaxTotal = o.Total().Sub(o.Amount)
	if o.Tax != nil {
		tax := *o.Tax
		i.Tax = &tax
	} else {
		i.Tax = nil
	}
	i.Currency = o.Currency
}

// SetIssuer copies the seller identity, failing fast on incomplete data.
func (i *Invoice) SetIssuer(d IssuerData) error {
	if err := d.Validate(); err != nil {
		return err
	}
	i.IssuerName = d.Name
	i.IssuerStreet = d.Street
	i.IssuerZipcode = d.Zipcode
	i.IssuerCity = d.City
	i.IssuerCountry = d.Country
	i.IssuerTaxNumber = d.TaxNumber
	return nil
}

// SetBuyer copies buyer and shipping fields from the billing info.
func (i *Invoice) SetBuyer(b BillingInfo) {
	i.BuyerName = b.Name
	i.BuyerStreet = b.Street
	i.BuyerZipcode = b.Zipcode
	i.BuyerCity = b.City
	i.BuyerCountry = b.Country
	i.BuyerTaxNumber = b.TaxNumber
	if b.HasShipping() {
		i.ShippingName = b.ShippingName
		i.ShippingStreet = b.ShippingStreet
		i.ShippingZipcode = b.ShippingZipcode
		i.ShippingCity = b.ShippingCity
		i.ShippingCountry = b.ShippingCountry
		i.RequireShipment = true
		return
	}
	i.ShippingName = b.Name
	i.ShippingStreet = b.Street
	i.ShippingZipcode = b.Zipcode
	i.ShippingCity = b.City
	i.ShippingCountry = b.Country
	i.RequireShipment = false
}

// Clean validates the invoice before it is numbered and stored.
func (i Invoice) Clean() error {
	var errs []error
	if !i.Type.Valid() {
		errs = append(errs, fmt.Errorf("invalid invoice type %q", i.Type))
	}
	if i.IssuerName == "" {
		errs = append(errs, fmt.Errorf("%w: issuer data not set", ErrImproperlyConfigured))
	}
	if strings.TrimSpace(i.Currency) == "" {
		errs = append(errs, errors.New("currency is required"))
	}
	if i.Issued.IsZero() {
		errs = append(errs, errors.New("issued date is required"))
	}
	if i.Quantity < 1 {
		errs = append(errs, errors.New("quantity must be positive"))
	}
	return errors.Join(errs...)
}

// Duplicate returns a copy of an issued invoice carrying the same number.
func (i Invoice) Duplicate(issued time.Time) Invoice {
	dup := i
	dup.ID = ""
	dup.Type = InvoiceTypeDuplicate
	dup.Issued = Day(issued)
	dup.CreatedAt = time.Time{}
	if i.Tax != nil {
		tax := *i.Tax
		dup.Tax = &tax
	}
	return dup
}
