// Package bootstrap assembles the billing service from configuration so the
// API, the worker and the operator CLIs share one wiring.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"billing/internal/adapter/repo"
	"billing/internal/infra"
	"billing/internal/infra/credentials"
	"billing/internal/invoicing"
	"billing/internal/metrics"
	"billing/internal/notify"
	"billing/internal/planchange"
	"billing/internal/service"
	"billing/internal/storage"
	"billing/internal/taxation"
	"billing/internal/taxation/vies"
)

// Components are the long-lived objects built from a Config.
type Components struct {
	Service     *service.Service
	Metrics     *metrics.Recorder
	Credentials *credentials.Store
	Documents   *storage.FileStore
}

// passwordSource supplies the SMTP password when it is not set in the
// environment.
type passwordSource interface {
	SMTPPassword(ctx context.Context) (string, error)
}

// Build wires repositories, policies, notifier and storage around sql.
func Build(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, logger zerolog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	recorder := metrics.New()
	creds := credentials.NewStore(sql)

	policy, err := planchange.ByName(cfg.PlanChangePolicy)
	if err != nil {
		return nil, err
	}
	tax, err := newTaxation(cfg, recorder, logger)
	if err != nil {
		return nil, err
	}
	docs, err := newDocumentStore(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("configure storage: %w", err)
	}
	notifier, err := newNotifier(ctx, cfg, creds, logger)
	if err != nil {
		return nil, err
	}

	formatter := cfg.NumberFormatter
	if formatter == nil {
		if formatter, err = invoicing.NewFormatter(cfg.InvoiceNumberFormat); err != nil {
			return nil, err
		}
	}
	numberer := invoicing.NewNumberer(cfg.InvoiceCounterReset, repo.NewInvoiceSequence(sql), formatter)

	var transactor service.Transactor
	if runner, ok := sql.(infra.TxRunner); ok {
		transactor = txRepositories{runner: runner}
	}

	svc, err := service.New(service.Options{
		Repos:           repositories(sql),
		Transactor:      transactor,
		Numberer:        numberer,
		PlanChange:      policy,
		Taxation:        tax,
		Notifier:        notifier,
		Metrics:         recorder,
		Documents:       docs,
		Currency:        cfg.Currency,
		Issuer:          cfg.Issuer,
		DefaultPlanID:   cfg.DefaultPlanID,
		PaymentTermDays: cfg.PaymentTermDays,
		Language:        language.English,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	return &Components{Service: svc, Metrics: recorder, Credentials: creds, Documents: docs}, nil
}

func repositories(sql infra.SQLExecutor) service.Repositories {
	return service.Repositories{
		Plans:     repo.NewPlanRepository(sql),
		UserPlans: repo.NewUserPlanRepository(sql),
		Billing:   repo.NewBillingInfoRepository(sql),
		Orders:    repo.NewOrderRepository(sql),
		Invoices:  repo.NewInvoiceRepository(sql),
		Users:     repo.NewUserDirectory(sql),
	}
}

// txRepositories binds a fresh repository set to each transaction.
type txRepositories struct {
	runner infra.TxRunner
}

func (t txRepositories) InTx(ctx context.Context, fn func(context.Context, service.Repositories) error) error {
	return t.runner.InTx(ctx, func(tx infra.SQLExecutor) error {
		return fn(ctx, repositories(tx))
	})
}

func newTaxation(cfg *infra.Config, recorder *metrics.Recorder, logger zerolog.Logger) (taxation.Policy, error) {
	var validator taxation.VATValidator
	if strings.EqualFold(cfg.TaxationPolicy, "eu") {
		client := vies.NewClient(vies.Options{
			Endpoint: cfg.VIESURL,
			Timeout:  cfg.VIESTimeout,
			Logger:   &logger,
		})
		validator = newVATValidator(client, cfg, recorder)
	}
	return taxation.ByName(cfg.TaxationPolicy, cfg.TaxCountry, cfg.Tax, validator, logger)
}

// newVATValidator caches remote answers; only lookups that miss the cache
// reach the recorder.
func newVATValidator(remote vies.Validator, cfg *infra.Config, recorder *metrics.Recorder) *vies.CachedValidator {
	return vies.NewCachedValidator(recorder.InstrumentValidator(remote), cfg.VIESCacheSize, cfg.VIESCacheTTL)
}

func newDocumentStore(path string) (*storage.FileStore, error) {
	if path == "" {
		path = "./storage"
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return storage.NewFileStore(path)
}

func newNotifier(ctx context.Context, cfg *infra.Config, passwords passwordSource, logger zerolog.Logger) (notify.Notifier, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		logger.Info().Msg("SMTP_HOST not set, notifications are logged only")
		return notify.LogNotifier{Logger: logger}, nil
	}
	password := cfg.SMTPPassword
	if password == "" && cfg.SMTPUsername != "" && passwords != nil {
		stored, err := passwords.SMTPPassword(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load smtp password from store")
		} else {
			password = stored
		}
	}
	return notify.NewSMTPNotifier(notify.SMTPOptions{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: password,
		From:     cfg.MailFrom,
	}, logger)
}
