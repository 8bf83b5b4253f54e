// Package taxation decides which VAT rate applies to a buyer.
package taxation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing/internal/domain"
)

// Policy resolves the tax rate for a buyer. A nil rate means no tax is
// charged (reverse charge or export).
type Policy interface {
	TaxRate(ctx context.Context, taxID, country string) *decimal.Decimal
}

// VATValidator confirms that a VAT number is registered in country.
type VATValidator interface {
	Validate(ctx context.Context, country, number string) (bool, error)
}

// FlatPolicy charges the same rate to every buyer.
type FlatPolicy struct {
	Rate *decimal.Decimal
}

func (p FlatPolicy) TaxRate(context.Context, string, string) *decimal.Decimal {
	return copyRate(p.Rate)
}

// EUPolicy implements intra-community VAT rules for a seller established in
// HomeCountry.
type EUPolicy struct {
	HomeCountry string
	Rate        *decimal.Decimal
	Validator   VATValidator
	Logger      zerolog.Logger
}

// NewEUPolicy validates that the seller is established in the EU.
func NewEUPolicy(homeCountry string, rate *decimal.Decimal, validator VATValidator, logger zerolog.Logger) (*EUPolicy, error) {
	home := NormalizeCountry(homeCountry)
	if !IsEU(home) {
		return nil, fmt.Errorf("%w: tax country %q is not an EU member state", domain.ErrImproperlyConfigured, homeCountry)
	}
	return &EUPolicy{
		HomeCountry: home,
		Rate:        rate,
		Validator:   validator,
		Logger:      logger.With().Str("component", "eu_taxation").Logger(),
	}, nil
}

func (p *EUPolicy) TaxRate(ctx context.Context, taxID, country string) *decimal.Decimal {
	country = NormalizeCountry(country)
	taxID = strings.TrimSpace(taxID)

	if country == "" || country == p.HomeCountry {
		return copyRate(p.Rate)
	}
	if !IsEU(country) {
		return nil
	}
	if taxID == "" {
		return copyRate(p.Rate)
	}
	if p.Validator == nil {
		p.Logger.Warn().Str("country", country).Msg("no VAT validator configured, charging home rate")
		return copyRate(p.Rate)
	}
	valid, err := p.Validator.Validate(ctx, country, taxID)
	if err != nil {
		p.Logger.Warn().Err(err).Str("country", country).Msg("VAT validation unavailable, charging home rate")
		return copyRate(p.Rate)
	}
	if valid {
		return nil
	}
	return copyRate(p.Rate)
}

func copyRate(r *decimal.Decimal) *decimal.Decimal {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

// ByName builds the configured policy.
func ByName(name, homeCountry string, rate *decimal.Decimal, validator VATValidator, logger zerolog.Logger) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "eu":
		p, err := NewEUPolicy(homeCountry, rate, validator, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "flat":
		return FlatPolicy{Rate: rate}, nil
	default:
		return nil, fmt.Errorf("%w: unknown taxation policy %q", domain.ErrImproperlyConfigured, name)
	}
}
