package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/invoicing"
	"billing/internal/metrics"
	"billing/internal/notify"
	"billing/internal/service"
	"billing/internal/taxation"
)

func baseConfig(t *testing.T) *infra.Config {
	t.Helper()
	rate := decimal.NewFromInt(23)
	return &infra.Config{
		Currency:            "EUR",
		Tax:                 &rate,
		TaxationPolicy:      "flat",
		PlanChangePolicy:    "standard",
		InvoiceCounterReset: invoicing.ResetMonthly,
		NumberFormatter:     invoicing.MustFormatter(invoicing.DefaultNumberFormat),
		StoragePath:         t.TempDir(),
	}
}

func TestBuild(t *testing.T) {
	comps, err := Build(context.Background(), baseConfig(t), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if comps.Service == nil || comps.Metrics == nil || comps.Credentials == nil || comps.Documents == nil {
		t.Fatalf("expected all components, got %+v", comps)
	}
}

func TestBuildRejectsBadPolicies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*infra.Config)
	}{
		{"plan change", func(c *infra.Config) { c.PlanChangePolicy = "generous" }},
		{"taxation", func(c *infra.Config) { c.TaxationPolicy = "zero" }},
		{"eu outside union", func(c *infra.Config) {
			c.TaxationPolicy = "eu"
			c.TaxCountry = "US"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(cfg)
			_, err := Build(context.Background(), cfg, nil, zerolog.Nop())
			if !errors.Is(err, domain.ErrImproperlyConfigured) {
				t.Fatalf("expected ErrImproperlyConfigured, got %v", err)
			}
		})
	}
}

func TestNewTaxationEU(t *testing.T) {
	cfg := baseConfig(t)
	cfg.TaxationPolicy = "eu"
	cfg.TaxCountry = "PL"
	policy, err := newTaxation(cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("newTaxation error: %v", err)
	}
	eu, ok := policy.(*taxation.EUPolicy)
	if !ok {
		t.Fatalf("expected EU policy, got %T", policy)
	}
	if eu.Validator == nil {
		t.Fatal("expected VIES validator to be wired")
	}
}

type fakePasswords struct {
	password string
	err      error
	calls    int
}

func (f *fakePasswords) SMTPPassword(context.Context) (string, error) {
	f.calls++
	return f.password, f.err
}

func TestNewNotifier(t *testing.T) {
	t.Run("log only without host", func(t *testing.T) {
		n, err := newNotifier(context.Background(), baseConfig(t), nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("newNotifier error: %v", err)
		}
		if _, ok := n.(notify.LogNotifier); !ok {
			t.Fatalf("expected LogNotifier, got %T", n)
		}
	})

	t.Run("password from store", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.SMTPHost = "smtp.example.com"
		cfg.SMTPUsername = "mailer"
		cfg.MailFrom = "billing@example.com"
		src := &fakePasswords{password: "stored"}
		n, err := newNotifier(context.Background(), cfg, src, zerolog.Nop())
		if err != nil {
			t.Fatalf("newNotifier error: %v", err)
		}
		if _, ok := n.(*notify.SMTPNotifier); !ok {
			t.Fatalf("expected SMTPNotifier, got %T", n)
		}
		if src.calls != 1 {
			t.Fatalf("expected store lookup, got %d calls", src.calls)
		}
	})

	t.Run("env password wins", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.SMTPHost = "smtp.example.com"
		cfg.SMTPUsername = "mailer"
		cfg.SMTPPassword = "env"
		cfg.MailFrom = "billing@example.com"
		src := &fakePasswords{err: errors.New("should not be called")}
		if _, err := newNotifier(context.Background(), cfg, src, zerolog.Nop()); err != nil {
			t.Fatalf("newNotifier error: %v", err)
		}
		if src.calls != 0 {
			t.Fatalf("expected no store lookup, got %d calls", src.calls)
		}
	})

	t.Run("missing sender", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.SMTPHost = "smtp.example.com"
		if _, err := newNotifier(context.Background(), cfg, nil, zerolog.Nop()); err == nil {
			t.Fatal("expected error without MAIL_FROM")
		}
	})
}

type nopExecutor struct{ infra.SQLExecutor }

type fakeTxRunner struct {
	calls int
	err   error
}

func (f *fakeTxRunner) InTx(_ context.Context, fn func(infra.SQLExecutor) error) error {
	f.calls++
	if err := fn(nopExecutor{}); err != nil {
		return err
	}
	return f.err
}

func TestTxRepositories(t *testing.T) {
	runner := &fakeTxRunner{}
	tx := txRepositories{runner: runner}
	wantErr := errors.New("rolled back")
	err := tx.InTx(context.Background(), func(_ context.Context, repos service.Repositories) error {
		if repos.Orders == nil || repos.UserPlans == nil || repos.Invoices == nil {
			t.Fatalf("repositories not bound: %+v", repos)
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) || runner.calls != 1 {
		t.Fatalf("InTx = %v after %d calls", err, runner.calls)
	}
}

type countingVIES struct{ calls int }

func (c *countingVIES) Validate(context.Context, string, string) (bool, error) {
	c.calls++
	return true, nil
}

func TestVATValidatorCountsRemoteLookupsOnly(t *testing.T) {
	recorder := metrics.New()
	remote := &countingVIES{}
	validator := newVATValidator(remote, baseConfig(t), recorder)
	for i := 0; i < 3; i++ {
		if ok, err := validator.Validate(context.Background(), "DE", "123456789"); !ok || err != nil {
			t.Fatalf("Validate = %v, %v", ok, err)
		}
	}
	if remote.calls != 1 {
		t.Fatalf("remote calls = %d, want 1", remote.calls)
	}
	families, err := recorder.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var checks float64
	for _, mf := range families {
		if mf.GetName() != "billing_vat_checks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			checks += m.GetCounter().GetValue()
		}
	}
	if checks != 1 {
		t.Fatalf("vat checks recorded = %v, want 1", checks)
	}
}
