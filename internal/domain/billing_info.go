package domain

import (
	"fmt"
	"strings"
)

// BillingInfo holds the buyer data copied onto invoices.
type BillingInfo struct {
	UserID          string `json:"user_id"`
	TaxNumber       string `json:"tax_number"`
	Name            string `json:"name"`
	Street          string `json:"street"`
	Zipcode         string `json:"zipcode"`
	City            string `json:"city"`
	Country         string `json:"country"`
	ShippingName    string `json:"shipping_name,omitempty"`
	ShippingStreet  string `json:"shipping_street,omitempty"`
	ShippingZipcode string `json:"shipping_zipcode,omitempty"`
	ShippingCity    string `json:"shipping_city,omitempty"`
	ShippingCountry string `json:"shipping_country,omitempty"`
}

// HasShipping reports whether a distinct shipping address was given.
func (b BillingInfo) HasShipping() bool {
	return b.ShippingName != "" || b.ShippingStreet != "" || b.ShippingCity != ""
}

// Normalize trims every field and upper-cases country codes.
func (b *BillingInfo) Normalize() {
	for _, f := range []*string{
		&b.TaxNumber, &b.Name, &b.Street, &b.Zipcode, &b.City, &b.Country,
		&b.ShippingName, &b.ShippingStreet, &b.ShippingZipcode, &b.ShippingCity, &b.ShippingCountry,
	} {
		*f = strings.TrimSpace(*f)
	}
	b.Country = strings.ToUpper(b.Country)
	b.ShippingCountry = strings.ToUpper(b.ShippingCountry)
}

// Validate checks the address required to issue invoices.
func (b BillingInfo) Validate() error {
	switch {
	case b.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case b.Street == "":
		return fmt.Errorf("%w: street is required", ErrInvalidInput)
	case b.Zipcode == "":
		return fmt.Errorf("%w: zipcode is required", ErrInvalidInput)
	case b.City == "":
		return fmt.Errorf("%w: city is required", ErrInvalidInput)
	case len(b.Country) != 2:
		return fmt.Errorf("%w: country must be a two-letter code", ErrInvalidInput)
	case b.ShippingCountry != "" && len(b.ShippingCountry) != 2:
		return fmt.Errorf("%w: shipping country must be a two-letter code", ErrInvalidInput)
	}
	return nil
}
