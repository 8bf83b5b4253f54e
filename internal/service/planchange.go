package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billing/internal/domain"
)

// PlanChangeQuote is the price of switching to another plan now.
type PlanChangeQuote struct {
	FromPlanID int64            `json:"from_plan_id"`
	ToPlanID   int64            `json:"to_plan_id"`
	DaysLeft   int              `json:"days_left"`
	Price      *decimal.Decimal `json:"price"`
	Tax        *decimal.Decimal `json:"tax"`
	Total      *decimal.Decimal `json:"total"`
	Currency   string           `json:"currency"`
}

// Free reports whether the change can be applied without payment.
func (q PlanChangeQuote) Free() bool {
	return q.Price == nil || !q.Price.IsPositive()
}

// PlanChangeResult describes what ChangePlan did.
type PlanChangeResult struct {
	Quote    PlanChangeQuote  `json:"quote"`
	Applied  bool             `json:"applied"`
	UserPlan *domain.UserPlan `json:"user_plan,omitempty"`
	Order    *domain.Order    `json:"order,omitempty"`
	Proforma *domain.Invoice  `json:"proforma,omitempty"`
}

// QuotePlanChange prices switching userID to toPlanID for the remaining paid
// days.
func (s *Service) QuotePlanChange(ctx context.Context, userID string, toPlanID int64) (*PlanChangeQuote, error) {
	_, _, quote, err := s.quote(ctx, userID, toPlanID)
	return quote, err
}

func (s *Service) quote(ctx context.Context, userID string, toPlanID int64) (*domain.UserPlan, *domain.Plan, *PlanChangeQuote, error) {
	up, err := s.EnsureUserPlan(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if up.PlanID == toPlanID {
		return nil, nil, nil, fmt.Errorf("plan %d: %w", toPlanID, domain.ErrSamePlan)
	}
	from, err := s.repos.Plans.Get(ctx, up.PlanID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load plan %d: %w", up.PlanID, err)
	}
	to, err := s.repos.Plans.Get(ctx, toPlanID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load plan %d: %w", toPlanID, err)
	}
	if !to.Available {
		return nil, nil, nil, fmt.Errorf("plan %d: %w", toPlanID, domain.ErrPlanUnavailable)
	}
	daysLeft := 0
	if up.Active {
		daysLeft = up.DaysLeft(s.today())
	}
	price, err := s.planChange.ChangePrice(*from, *to, daysLeft)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("price plan change: %w", err)
	}
	_, tax, err := s.buyerTax(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	q := &PlanChangeQuote{
		FromPlanID: from.ID,
		ToPlanID:   to.ID,
		DaysLeft:   daysLeft,
		Price:      price,
		Tax:        tax,
		Currency:   s.currency,
	}
	if price != nil {
		total := domain.ApplyTax(*price, tax)
		q.Total = &total
	}
	return up, to, q, nil
}

// ChangePlan switches the user to toPlanID. Free changes are applied at once;
// charged ones create a plan-change order that takes effect on completion.
func (s *Service) ChangePlan(ctx context.Context, userID string, toPlanID int64) (*PlanChangeResult, error) {
	up, to, quote, err := s.quote(ctx, userID, toPlanID)
	if err != nil {
		return nil, err
	}
	if quote.Free() {
		up.Extend(to.ID, 0, s.today())
		up.UpdatedAt = s.now()
		if err := s.repos.UserPlans.Save(ctx, up); err != nil {
			return nil, fmt.Errorf("save user plan: %w", err)
		}
		s.metrics.AccountEvent("plan_changed")
		s.logger.Info().Str("user_id", userID).Int64("plan_id", to.ID).Msg("plan changed")
		return &PlanChangeResult{Quote: *quote, Applied: true, UserPlan: up}, nil
	}

	if err := s.issuer.Validate(); err != nil {
		return nil, err
	}
	order := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanID:    to.ID,
		Amount:    *quote.Price,
		Tax:       quote.Tax,
		Currency:  s.currency,
		Status:    domain.OrderStatusNew,
		CreatedAt: s.now(),
	}
	if err := s.repos.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.metrics.Order("placed")
	proforma, err := s.IssueInvoice(ctx, *order, domain.InvoiceTypeProforma)
	if err != nil {
		return nil, err
	}
	return &PlanChangeResult{Quote: *quote, Order: order, Proforma: proforma}, nil
}
