package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"billing/internal/domain"
	"billing/internal/notify"
)

// PlaceOrder creates a new order for a plan pricing and issues its proforma
// invoice.
func (s *Service) PlaceOrder(ctx context.Context, userID string, planID, pricingID int64) (*domain.Order, *domain.Invoice, error) {
	if err := s.issuer.Validate(); err != nil {
		return nil, nil, err
	}
	plan, err := s.repos.Plans.Get(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("load plan %d: %w", planID, err)
	}
	if !plan.Available {
		return nil, nil, fmt.Errorf("plan %d: %w", planID, domain.ErrPlanUnavailable)
	}
	pricing, ok := plan.Pricing(pricingID)
	if !ok {
		return nil, nil, fmt.Errorf("plan %d pricing %d: %w", planID, pricingID, domain.ErrInvalidPricing)
	}
	if _, err := s.EnsureUserPlan(ctx, userID); err != nil {
		return nil, nil, err
	}
	_, tax, err := s.buyerTax(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	pid := pricing.ID
	order := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanID:    plan.ID,
		PricingID: &pid,
		Amount:    domain.Round2(pricing.Price),
		Tax:       tax,
		Currency:  s.currency,
		Status:    domain.OrderStatusNew,
		CreatedAt: s.now(),
	}
	if err := s.repos.Orders.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	s.metrics.Order("placed")

	proforma, err := s.IssueInvoice(ctx, *order, domain.InvoiceTypeProforma)
	if err != nil {
		return order, nil, err
	}
	s.logger.Info().Str("order_id", order.ID).Str("user_id", userID).Int64("plan_id", plan.ID).Msg("order placed")
	return order, proforma, nil
}

// CompleteOrder marks a new order as paid, applies it to the user's account
// and issues the final invoice. The status change, the account update and
// the invoice are stored together; an order completed concurrently fails
// with domain.ErrOrderState.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) (*domain.Order, *domain.Invoice, error) {
	if err := s.issuer.Validate(); err != nil {
		return nil, nil, err
	}
	order, err := s.repos.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	plan, err := s.repos.Plans.Get(ctx, order.PlanID)
	if err != nil {
		return nil, nil, fmt.Errorf("load plan %d: %w", order.PlanID, err)
	}
	period := 0
	if !order.IsPlanChange() {
		pricing, ok := plan.Pricing(*order.PricingID)
		if !ok {
			return nil, nil, fmt.Errorf("plan %d pricing %d: %w", plan.ID, *order.PricingID, domain.ErrInvalidPricing)
		}
		period = pricing.Period
	}
	if err := order.Complete(s.now()); err != nil {
		return nil, nil, fmt.Errorf("complete order %s: %w", order.ID, err)
	}

	var (
		up      *domain.UserPlan
		invoice *domain.Invoice
	)
	err = s.inTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusNew); err != nil {
			return fmt.Errorf("update order %s: %w", order.ID, err)
		}
		var err error
		if up, err = s.ensureUserPlan(ctx, repos, order.UserID); err != nil {
			return err
		}
		up.Extend(plan.ID, period, s.today())
		up.UpdatedAt = s.now()
		if err := repos.UserPlans.Save(ctx, up); err != nil {
			return fmt.Errorf("save user plan: %w", err)
		}
		invoice, err = s.issueInvoice(ctx, repos, *order, domain.InvoiceTypeInvoice)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.Order("completed")
	s.metrics.AccountEvent("extended")
	s.invoiceIssued(invoice)
	s.notify(ctx, notify.KindAccountExtended, *up)
	s.logger.Info().Str("order_id", order.ID).Str("user_id", order.UserID).Str("invoice", invoice.FullNumber).Msg("order completed")
	return order, invoice, nil
}

// CancelOrder cancels a new order. An empty userID skips the ownership check.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.Order(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", order.ID, err)
	}
	if err := s.repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusNew); err != nil {
		return nil, fmt.Errorf("update order %s: %w", order.ID, err)
	}
	s.metrics.Order("canceled")
	return order, nil
}

// Order returns an order owned by userID. An empty userID skips the ownership
// check; orders of other users are reported as not found.
func (s *Service) Order(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.repos.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// Orders lists the most recent orders of a user.
func (s *Service) Orders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	return s.repos.Orders.ListByUser(ctx, userID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
