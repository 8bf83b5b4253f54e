package taxation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing/internal/domain"
)

type stubValidator struct {
	valid bool
	err   error
	calls int
}

func (s *stubValidator) Validate(context.Context, string, string) (bool, error) {
	s.calls++
	return s.valid, s.err
}

func TestEUPolicyTaxRate(t *testing.T) {
	home := domain.RatePtr("23.0")
	tests := []struct {
		name      string
		taxID     string
		country   string
		validator *stubValidator
		want      *decimal.Decimal
		wantCalls int
	}{
		{name: "none", want: home},
		{name: "private non EU", country: "RU", want: nil},
		{name: "private EU same", country: "PL", want: home},
		{name: "private EU other", country: "AT", want: home},
		{name: "company non EU", taxID: "123456", country: "RU", want: nil},
		{name: "company EU same", taxID: "123456", country: "PL", want: home},
		{name: "company EU other vies ok", taxID: "123456", country: "AT", validator: &stubValidator{valid: true}, want: nil, wantCalls: 1},
		{name: "company EU other vies rejects", taxID: "123456", country: "AT", validator: &stubValidator{valid: false}, want: home, wantCalls: 1},
		{name: "company EU other vies down", taxID: "123456", country: "AT", validator: &stubValidator{err: errors.New("timeout")}, want: home, wantCalls: 1},
		{name: "greek prefix", taxID: "123456", country: "el", validator: &stubValidator{valid: true}, want: nil, wantCalls: 1},
		{name: "lowercase home", taxID: "123456", country: "pl", want: home},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.validator
			if v == nil {
				v = &stubValidator{}
			}
			p, err := NewEUPolicy("PL", home, v, zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}
			got := p.TaxRate(context.Background(), tc.taxID, tc.country)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("TaxRate = %s, want nil", got)
			case tc.want != nil && (got == nil || !got.Equal(*tc.want)):
				t.Fatalf("TaxRate = %v, want %s", got, tc.want)
			}
			if v.calls != tc.wantCalls {
				t.Fatalf("validator calls = %d, want %d", v.calls, tc.wantCalls)
			}
		})
	}
}

func TestEUPolicyRequiresEUHome(t *testing.T) {
	if _, err := NewEUPolicy("US", domain.RatePtr("8"), nil, zerolog.Nop()); !errors.Is(err, domain.ErrImproperlyConfigured) {
		t.Fatalf("NewEUPolicy(US) error = %v, want ErrImproperlyConfigured", err)
	}
}

func TestEUPolicyWithoutValidatorChargesHomeRate(t *testing.T) {
	p, err := NewEUPolicy("PL", domain.RatePtr("23"), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got := p.TaxRate(context.Background(), "ATU123", "AT")
	if got == nil || !got.Equal(decimal.NewFromInt(23)) {
		t.Fatalf("TaxRate = %v, want 23", got)
	}
}

func TestFlatPolicyAndByName(t *testing.T) {
	p, err := ByName("flat", "", domain.RatePtr("8"), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got := p.TaxRate(context.Background(), "X", "RU")
	if got == nil || !got.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("flat TaxRate = %v, want 8", got)
	}
	if _, err := ByName("eu", "PL", nil, nil, zerolog.Nop()); err != nil {
		t.Fatalf("ByName(eu) error: %v", err)
	}
	if _, err := ByName("other", "PL", nil, nil, zerolog.Nop()); !errors.Is(err, domain.ErrImproperlyConfigured) {
		t.Fatalf("ByName(other) error = %v", err)
	}
}
