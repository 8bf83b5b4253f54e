package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Plan is a named subscription offer available at one or more pricings.
type Plan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Available   bool      `json:"available"`
	Visible     bool      `json:"visible"`
	Default     bool      `json:"default"`
	Position    int       `json:"position"`
	Pricings    []Pricing `json:"pricings"`
}

// Pricing is a price for a plan granting Period days of subscription.
type Pricing struct {
	ID     int64           `json:"id"`
	PlanID int64           `json:"plan_id"`
	Name   string          `json:"name"`
	Period int             `json:"period"`
	Price  decimal.Decimal `json:"price"`
}

// Pricing looks up one of the plan's pricings.
func (p Plan) Pricing(id int64) (Pricing, bool) {
	for _, pr := range p.Pricings {
		if pr.ID == id {
			return pr, true
		}
	}
	return Pricing{}, false
}

// PricingsByPeriodDesc returns a copy of the pricings ordered from the longest
// period to the shortest.
func (p Plan) PricingsByPeriodDesc() []Pricing {
	out := make([]Pricing, len(p.Pricings))
	copy(out, p.Pricings)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

// IsFree reports whether the plan cannot be bought, which is how default
// plans are modeled.
func (p Plan) IsFree() bool {
	return len(p.Pricings) == 0
}
