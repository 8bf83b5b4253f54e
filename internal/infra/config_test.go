package infra

import (
	"errors"
	"testing"

	"billing/internal/domain"
	"billing/internal/invoicing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TAX", "")
	t.Setenv("TAX_COUNTRY", "")
	t.Setenv("TAXATION_POLICY", "")
	t.Setenv("INVOICE_COUNTER_RESET", "")
	t.Setenv("EXPIRATION_REMIND_DAYS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Tax != nil {
		t.Fatalf("Tax = %s, want nil", cfg.Tax)
	}
	if cfg.TaxationPolicy != "flat" {
		t.Fatalf("TaxationPolicy = %q", cfg.TaxationPolicy)
	}
	if cfg.InvoiceCounterReset != invoicing.ResetMonthly {
		t.Fatalf("InvoiceCounterReset = %q", cfg.InvoiceCounterReset)
	}
	if cfg.Currency != "EUR" || cfg.PlanChangePolicy != "standard" {
		t.Fatalf("currency/policy = %q/%q", cfg.Currency, cfg.PlanChangePolicy)
	}
	if len(cfg.ExpirationRemindDays) != 3 || cfg.ExpirationRemindDays[0] != 3 {
		t.Fatalf("ExpirationRemindDays = %v", cfg.ExpirationRemindDays)
	}
	if cfg.NumberFormatter == nil {
		t.Fatal("NumberFormatter not compiled")
	}
}

func TestLoadConfigTaxSettings(t *testing.T) {
	setRequired(t)
	t.Setenv("TAX", "23")
	t.Setenv("TAX_COUNTRY", "pl")
	t.Setenv("TAXATION_POLICY", "")
	t.Setenv("INVOICE_COUNTER_RESET", "annually")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Tax == nil || cfg.Tax.String() != "23" {
		t.Fatalf("Tax = %v", cfg.Tax)
	}
	if cfg.TaxCountry != "PL" || cfg.TaxationPolicy != "eu" {
		t.Fatalf("TaxCountry/TaxationPolicy = %q/%q", cfg.TaxCountry, cfg.TaxationPolicy)
	}
	if cfg.InvoiceCounterReset != invoicing.ResetAnnually {
		t.Fatalf("InvoiceCounterReset = %q", cfg.InvoiceCounterReset)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("TrustedProxies = %v", cfg.TrustedProxies)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad tax", "TAX", "abc"},
		{"negative tax", "TAX", "-1"},
		{"bad reset", "INVOICE_COUNTER_RESET", "weekly"},
		{"bad number format", "INVOICE_NUMBER_FORMAT", "{{.Number"},
		{"bad remind days", "EXPIRATION_REMIND_DAYS", "3,x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			if _, err := LoadConfig(); !errors.Is(err, domain.ErrImproperlyConfigured) {
				t.Fatalf("error = %v, want ErrImproperlyConfigured", err)
			}
		})
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}
