package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrImproperlyConfigured = errors.New("improperly configured")
	ErrInvalidInput         = errors.New("invalid input")
	ErrPlanUnavailable      = errors.New("plan unavailable")
	ErrInvalidPricing       = errors.New("invalid pricing")
	ErrOrderState           = errors.New("order state does not allow this operation")
	ErrNoPricing            = errors.New("plan has no pricings")
	ErrSamePlan             = errors.New("plan is already active")
	ErrInvoiceType          = errors.New("operation not allowed for this invoice type")
	ErrDuplicateNumber      = errors.New("invoice number already used")
)
