package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"billing/internal/middleware"
)

// PlansList returns the visible catalog.
func (a *App) PlansList(w http.ResponseWriter, r *http.Request) {
	a.plans(w, r, false)
}

// AdminPlansList includes hidden plans.
func (a *App) AdminPlansList(w http.ResponseWriter, r *http.Request) {
	a.plans(w, r, true)
}

func (a *App) plans(w http.ResponseWriter, r *http.Request, all bool) {
	plans, err := a.Billing.Plans(r.Context(), all)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, items(plans))
}

func (a *App) PlanGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid plan id")
		return
	}
	plan, err := a.Billing.Plan(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, plan)
}

// TaxQuote reports the rate that applies to a buyer. Without an explicit
// country the one resolved for the request is used.
func (a *App) TaxQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	if country == "" {
		country = middleware.CountryFromContext(r.Context())
	}
	a.json(w, http.StatusOK, a.Billing.TaxQuote(r.Context(), q.Get("tax_id"), country))
}
