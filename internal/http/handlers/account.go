package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"billing/internal/domain"
)

type userPlanResponse struct {
	domain.UserPlan
	DaysLeft int `json:"days_left"`
}

// MyPlan returns the caller's subscription, assigning the default plan on
// first access.
func (a *App) MyPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	up, err := a.Billing.EnsureUserPlan(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, userPlanResponse{UserPlan: *up, DaysLeft: up.DaysLeft(a.now())})
}

func (a *App) BillingGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	info, err := a.Billing.BillingInfo(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "billing info not set")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, info)
}

func (a *App) BillingPut(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BillingInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.UserID = userID
	info, err := a.Billing.SaveBillingInfo(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, info)
}

func (a *App) PlanChangeQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	planID, ok := parseID(chi.URLParam(r, "planID"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid plan id")
		return
	}
	quote, err := a.Billing.QuotePlanChange(r.Context(), userID, planID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, quote)
}

type planChangeRequest struct {
	PlanID int64 `json:"plan_id"`
}

// PlanChange switches plans right away when the change is free and otherwise
// opens a plan change order.
func (a *App) PlanChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req planChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "plan_id required")
		return
	}
	res, err := a.Billing.ChangePlan(r.Context(), userID, req.PlanID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Applied {
		status = http.StatusOK
	}
	a.json(w, status, res)
}
