package domain

import (
	"context"
	"time"
)

// PlanRepository reads the plan catalog.
type PlanRepository interface {
	List(ctx context.Context, visibleOnly bool) ([]Plan, error)
	Get(ctx context.Context, id int64) (*Plan, error)
	Default(ctx context.Context) (*Plan, error)
}

// UserPlanRepository persists per-user subscription state.
type UserPlanRepository interface {
	Get(ctx context.Context, userID string) (*UserPlan, error)
	Save(ctx context.Context, plan *UserPlan) error
	ListExpired(ctx context.Context, today time.Time) ([]UserPlan, error)
	ListExpiringOn(ctx context.Context, day time.Time) ([]UserPlan, error)
	// DeactivateExpired switches the plan off only if it is still active and
	// expired before today. It reports whether a row changed.
	DeactivateExpired(ctx context.Context, userID string, today time.Time) (bool, error)
}

// BillingInfoRepository persists buyer data.
type BillingInfoRepository interface {
	Get(ctx context.Context, userID string) (*BillingInfo, error)
	Save(ctx context.Context, info *BillingInfo) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// UpdateStatus stores order.Status if the stored status still equals
	// from, and fails with ErrOrderState otherwise.
	UpdateStatus(ctx context.Context, order *Order, from OrderStatus) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Order, error)
}

// InvoiceRepository persists issued invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Invoice, error)
	ListIssuedBetween(ctx context.Context, from, to time.Time) ([]Invoice, error)
}

// UserDirectory resolves contact data for notifications.
type UserDirectory interface {
	Contact(ctx context.Context, userID string) (*Contact, error)
}
