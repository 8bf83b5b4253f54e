// Package planchange prices switching a user between plans mid-cycle.
package planchange

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billing/internal/domain"
)

// Policy returns the charge for moving from one plan to another with
// daysLeft paid days remaining. A nil price means the change is free.
type Policy interface {
	ChangePrice(from, to domain.Plan, daysLeft int) (*decimal.Decimal, error)
}

// DayCost returns the per-day price of plan for a period of the given length.
// The pricing with the longest period not exceeding period is used, or the
// shortest pricing when every pricing is longer.
func DayCost(plan domain.Plan, period int) (decimal.Decimal, error) {
	pricings := plan.PricingsByPeriodDesc()
	var selected *domain.Pricing
	for i := range pricings {
		selected = &pricings[i]
		if pricings[i].Period <= period {
			break
		}
	}
	if selected == nil {
		return decimal.Zero, fmt.Errorf("plan %d: %w", plan.ID, domain.ErrNoPricing)
	}
	if selected.Period <= 0 {
		return decimal.Zero, fmt.Errorf("plan %d pricing %d: %w", plan.ID, selected.ID, domain.ErrInvalidPricing)
	}
	return domain.Round2(selected.Price.Div(decimal.NewFromInt(int64(selected.Period)))), nil
}

type finalizer func(daysLeft int, dayCostDiff *decimal.Decimal) *decimal.Decimal

func changePrice(from, to domain.Plan, daysLeft int, final finalizer) (*decimal.Decimal, error) {
	if daysLeft < 1 {
		return nil, nil
	}
	fromCost, err := DayCost(from, daysLeft)
	if err != nil {
		return nil, err
	}
	toCost, err := DayCost(to, daysLeft)
	if err != nil {
		return nil, err
	}
	if toCost.LessThanOrEqual(fromCost) {
		return final(daysLeft, nil), nil
	}
	diff := toCost.Sub(fromCost)
	return final(daysLeft, &diff), nil
}

// Base charges the plain per-day difference for upgrades and nothing for
// downgrades.
type Base struct{}

func (Base) ChangePrice(from, to domain.Plan, daysLeft int) (*decimal.Decimal, error) {
	return changePrice(from, to, daysLeft, func(days int, diff *decimal.Decimal) *decimal.Decimal {
		if diff == nil {
			return nil
		}
		price := domain.Round2(diff.Mul(decimal.NewFromInt(int64(days))))
		return &price
	})
}

// Standard adds a percentage surcharge and a fixed fee to upgrades.
type Standard struct {
	UpgradePercentRate decimal.Decimal
	UpgradeCharge      decimal.Decimal
	// DowngradeCharge is returned as-is for downgrades; nil keeps them free.
	DowngradeCharge *decimal.Decimal
	// FreeUpgrade is both the floor and the price of cheap upgrades: a cost
	// below it is replaced by FreeUpgrade itself.
	FreeUpgrade decimal.Decimal
}

// NewStandard returns the standard policy with a 10% upgrade surcharge.
func NewStandard() Standard {
	return Standard{
		UpgradePercentRate: decimal.NewFromInt(10),
		UpgradeCharge:      decimal.Zero,
		FreeUpgrade:        decimal.Zero,
	}
}

func (s Standard) ChangePrice(from, to domain.Plan, daysLeft int) (*decimal.Decimal, error) {
	return changePrice(from, to, daysLeft, func(days int, diff *decimal.Decimal) *decimal.Decimal {
		if diff == nil {
			if s.DowngradeCharge == nil {
				return nil
			}
			charge := *s.DowngradeCharge
			return &charge
		}
		rate := decimal.NewFromInt(1).Add(s.UpgradePercentRate.Div(decimal.NewFromInt(100)))
		cost := domain.Round2(diff.Mul(decimal.NewFromInt(int64(days))).Mul(rate).Add(s.UpgradeCharge))
		if cost.LessThan(s.FreeUpgrade) {
			cost = s.FreeUpgrade
		}
		return &cost
	})
}

// ByName resolves a configured policy name.
func ByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return NewStandard(), nil
	case "base":
		return Base{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown plan change policy %q", domain.ErrImproperlyConfigured, name)
	}
}
