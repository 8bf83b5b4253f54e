package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusNotValid  OrderStatus = "not_valid"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusReturned  OrderStatus = "returned"
)

// Order is a purchase of a plan. Orders without a pricing are plan changes
// charged for the prorated difference.
type Order struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	PlanID      int64            `json:"plan_id"`
	PricingID   *int64           `json:"pricing_id,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Tax         *decimal.Decimal `json:"tax"`
	Currency    string           `json:"currency"`
	Status      OrderStatus      `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Total is the gross amount of the order.
func (o Order) Total() decimal.Decimal {
	return ApplyTax(o.Amount, o.Tax)
}

// TaxTotal is the tax part of Total.
func (o Order) TaxTotal() decimal.Decimal {
	return o.Total().Sub(o.Amount)
}

// IsPlanChange reports whether the order switches plans instead of buying a
// period.
func (o Order) IsPlanChange() bool {
	return o.PricingID == nil
}

// Complete moves a new order to completed.
func (o *Order) Complete(now time.Time) error {
	if o.Status != OrderStatusNew {
		return ErrOrderState
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	return nil
}

// Cancel moves a new order to canceled.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusNew {
		return ErrOrderState
	}
	o.Status = OrderStatusCanceled
	return nil
}
