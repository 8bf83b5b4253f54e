package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"billing/internal/domain"
	"billing/internal/middleware"
	"billing/internal/service"
)

// Billing is the part of the billing service exposed over HTTP.
type Billing interface {
	EnsureUserPlan(ctx context.Context, userID string) (*domain.UserPlan, error)
	Plans(ctx context.Context, all bool) ([]domain.Plan, error)
	Plan(ctx context.Context, id int64) (*domain.Plan, error)
	BillingInfo(ctx context.Context, userID string) (*domain.BillingInfo, error)
	SaveBillingInfo(ctx context.Context, info domain.BillingInfo) (*domain.BillingInfo, error)
	TaxQuote(ctx context.Context, taxNumber, country string) service.TaxQuote

	QuotePlanChange(ctx context.Context, userID string, toPlanID int64) (*service.PlanChangeQuote, error)
	ChangePlan(ctx context.Context, userID string, toPlanID int64) (*service.PlanChangeResult, error)

	PlaceOrder(ctx context.Context, userID string, planID, pricingID int64) (*domain.Order, *domain.Invoice, error)
	CompleteOrder(ctx context.Context, orderID string) (*domain.Order, *domain.Invoice, error)
	CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	Order(ctx context.Context, userID, orderID string) (*domain.Order, error)
	Orders(ctx context.Context, userID string, limit int) ([]domain.Order, error)

	Invoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error)
	Invoices(ctx context.Context, userID string, limit int) ([]domain.Invoice, error)
	InvoiceDocument(ctx context.Context, userID, invoiceID string, lang language.Tag) (*service.Document, error)
	DuplicateInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	ExportInvoices(ctx context.Context, from, to time.Time) ([]byte, int, error)
}

// App carries the dependencies shared by all handlers.
type App struct {
	Billing Billing
	Logger  zerolog.Logger
	Now     func() time.Time
	// Ready checks backing services for the health endpoint.
	Ready func(ctx context.Context) error
}

func NewApp(billing Billing, logger zerolog.Logger) *App {
	return &App{Billing: billing, Logger: logger, Now: time.Now}
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": errCode, "message": msg})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// fail maps service errors onto HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidPricing),
		errors.Is(err, domain.ErrNoPricing):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrPlanUnavailable),
		errors.Is(err, domain.ErrSamePlan):
		a.error(w, http.StatusUnprocessableEntity, "plan_unavailable", err.Error())
	case errors.Is(err, domain.ErrOrderState),
		errors.Is(err, domain.ErrInvoiceType),
		errors.Is(err, domain.ErrDuplicateNumber):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrImproperlyConfigured):
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("billing misconfigured")
		a.error(w, http.StatusServiceUnavailable, "not_configured", "billing is not configured")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return "", false
	}
	return userID, true
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](v []T) listResponse[T] {
	if v == nil {
		v = []T{}
	}
	return listResponse[T]{Items: v}
}
