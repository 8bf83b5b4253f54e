// Package service orchestrates plans, orders and invoices over the
// repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"billing/internal/domain"
	"billing/internal/invoicing"
	"billing/internal/metrics"
	"billing/internal/notify"
	"billing/internal/planchange"
	"billing/internal/taxation"
)

// DocumentStore keeps rendered invoice documents.
type DocumentStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

// Repositories groups the persistence ports the service depends on.
type Repositories struct {
	Plans     domain.PlanRepository
	UserPlans domain.UserPlanRepository
	Billing   domain.BillingInfoRepository
	Orders    domain.OrderRepository
	Invoices  domain.InvoiceRepository
	Users     domain.UserDirectory
}

// Transactor runs fn with repositories that share one database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Options configures a Service.
type Options struct {
	Repos Repositories
	// Transactor groups multi-row updates; without it they run on Repos
	// directly.
	Transactor Transactor
	Numberer   *invoicing.Numberer
	PlanChange planchange.Policy
	Taxation   taxation.Policy
	Notifier   notify.Notifier
	Metrics    *metrics.Recorder
	Documents  DocumentStore

	Currency      string
	Issuer        domain.IssuerData
	DefaultPlanID int64
	// PaymentTermDays is the due period printed on proforma invoices.
	PaymentTermDays int
	Language        language.Tag

	Logger zerolog.Logger
	Now    func() time.Time
}

// Service implements the billing operations.
type Service struct {
	repos      Repositories
	tx         Transactor
	numberer   *invoicing.Numberer
	planChange planchange.Policy
	tax        taxation.Policy
	notifier   notify.Notifier
	metrics    *metrics.Recorder
	documents  DocumentStore

	currency      string
	issuer        domain.IssuerData
	defaultPlanID int64
	paymentTerm   int
	lang          language.Tag

	logger zerolog.Logger
	now    func() time.Time
}

// New validates opts and builds a Service.
func New(opts Options) (*Service, error) {
	r := opts.Repos
	if r.Plans == nil || r.UserPlans == nil || r.Billing == nil || r.Orders == nil || r.Invoices == nil {
		return nil, fmt.Errorf("%w: service repositories are required", domain.ErrImproperlyConfigured)
	}
	if opts.Numberer == nil {
		return nil, fmt.Errorf("%w: invoice numberer is required", domain.ErrImproperlyConfigured)
	}
	if opts.PlanChange == nil || opts.Taxation == nil {
		return nil, fmt.Errorf("%w: plan change and taxation policies are required", domain.ErrImproperlyConfigured)
	}
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", domain.ErrImproperlyConfigured)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: opts.Logger}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lang := opts.Language
	if lang == language.Und {
		lang = language.English
	}
	term := opts.PaymentTermDays
	if term <= 0 {
		term = 14
	}
	return &Service{
		repos:         r,
		tx:            opts.Transactor,
		numberer:      opts.Numberer,
		planChange:    opts.PlanChange,
		tax:           opts.Taxation,
		notifier:      notifier,
		metrics:       opts.Metrics,
		documents:     opts.Documents,
		currency:      currency,
		issuer:        opts.Issuer,
		defaultPlanID: opts.DefaultPlanID,
		paymentTerm:   term,
		lang:          lang,
		logger:        opts.Logger.With().Str("component", "billing_service").Logger(),
		now:           now,
	}, nil
}

func (s *Service) today() time.Time {
	return domain.Day(s.now())
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if s.tx == nil {
		return fn(ctx, s.repos)
	}
	return s.tx.InTx(ctx, fn)
}

// EnsureUserPlan returns the user's plan, assigning the default plan to users
// that have none yet.
func (s *Service) EnsureUserPlan(ctx context.Context, userID string) (*domain.UserPlan, error) {
	return s.ensureUserPlan(ctx, s.repos, userID)
}

func (s *Service) ensureUserPlan(ctx context.Context, repos Repositories, userID string) (*domain.UserPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	up, err := repos.UserPlans.Get(ctx, userID)
	if err == nil {
		return up, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load user plan: %w", err)
	}

	var plan *domain.Plan
	if s.defaultPlanID > 0 {
		plan, err = repos.Plans.Get(ctx, s.defaultPlanID)
	} else {
		plan, err = repos.Plans.Default(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve default plan: %w", err)
	}
	up = &domain.UserPlan{UserID: userID, PlanID: plan.ID, Active: true, UpdatedAt: s.now()}
	if err := repos.UserPlans.Save(ctx, up); err != nil {
		return nil, fmt.Errorf("save user plan: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Int64("plan_id", plan.ID).Msg("default plan assigned")
	return up, nil
}

// Plans lists the catalog; only visible plans unless all is set.
func (s *Service) Plans(ctx context.Context, all bool) ([]domain.Plan, error) {
	return s.repos.Plans.List(ctx, !all)
}

// Plan returns a single catalog entry.
func (s *Service) Plan(ctx context.Context, id int64) (*domain.Plan, error) {
	return s.repos.Plans.Get(ctx, id)
}

// BillingInfo returns the stored buyer data.
func (s *Service) BillingInfo(ctx context.Context, userID string) (*domain.BillingInfo, error) {
	return s.repos.Billing.Get(ctx, userID)
}

// SaveBillingInfo validates and stores buyer data.
func (s *Service) SaveBillingInfo(ctx context.Context, info domain.BillingInfo) (*domain.BillingInfo, error) {
	info.Normalize()
	info.Country = taxation.NormalizeCountry(info.Country)
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if err := s.repos.Billing.Save(ctx, &info); err != nil {
		return nil, fmt.Errorf("save billing info: %w", err)
	}
	return &info, nil
}

// TaxQuote is the tax that would apply to a buyer.
type TaxQuote struct {
	Country   string           `json:"country"`
	TaxNumber string           `json:"tax_number,omitempty"`
	Rate      *decimal.Decimal `json:"rate"`
	Currency  string           `json:"currency"`
}

// TaxQuote resolves the tax rate for a buyer.
func (s *Service) TaxQuote(ctx context.Context, taxNumber, country string) TaxQuote {
	country = taxation.NormalizeCountry(strings.ToUpper(strings.TrimSpace(country)))
	taxNumber = strings.TrimSpace(taxNumber)
	return TaxQuote{
		Country:   country,
		TaxNumber: taxNumber,
		Rate:      s.tax.TaxRate(ctx, taxNumber, country),
		Currency:  s.currency,
	}
}

func (s *Service) buyerTax(ctx context.Context, userID string) (*domain.BillingInfo, *decimal.Decimal, error) {
	info, err := s.buyer(ctx, s.repos, userID)
	if err != nil {
		return nil, nil, err
	}
	return info, s.tax.TaxRate(ctx, info.TaxNumber, info.Country), nil
}

// buyer returns the stored billing info, or an empty one for new users.
func (s *Service) buyer(ctx context.Context, repos Repositories, userID string) (*domain.BillingInfo, error) {
	info, err := repos.Billing.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load billing info: %w", err)
		}
		info = &domain.BillingInfo{UserID: userID}
	}
	return info, nil
}

func (s *Service) notify(ctx context.Context, kind notify.Kind, up domain.UserPlan) {
	if s.repos.Users == nil {
		return
	}
	contact, err := s.repos.Users.Contact(ctx, up.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", up.UserID).Msg("contact lookup failed")
		s.metrics.NotificationFailed()
		return
	}
	planName := ""
	if plan, err := s.repos.Plans.Get(ctx, up.PlanID); err == nil {
		planName = plan.Name
	}
	event := notify.Event{
		Kind:     kind,
		Contact:  *contact,
		PlanName: planName,
		Expire:   up.Expire,
		DaysLeft: up.DaysLeft(s.today()),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("user_id", up.UserID).Str("kind", string(kind)).Msg("notification failed")
		s.metrics.NotificationFailed()
	}
}
