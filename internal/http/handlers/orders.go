package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"billing/internal/domain"
)

type placeOrderRequest struct {
	PlanID    int64 `json:"plan_id"`
	PricingID int64 `json:"pricing_id"`
}

type orderResponse struct {
	Order    *domain.Order   `json:"order"`
	Invoice  *domain.Invoice `json:"invoice,omitempty"`
	Proforma *domain.Invoice `json:"proforma,omitempty"`
}

func (a *App) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.PlanID <= 0 || req.PricingID <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "plan_id and pricing_id required")
		return
	}
	order, proforma, err := a.Billing.PlaceOrder(r.Context(), userID, req.PlanID, req.PricingID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().Str("user_id", userID).Str("order_id", order.ID).Msg("order placed")
	a.json(w, http.StatusCreated, orderResponse{Order: order, Proforma: proforma})
}

func (a *App) OrdersList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	orders, err := a.Billing.Orders(r.Context(), userID, queryLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, items(orders))
}

func (a *App) OrderGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	order, err := a.Billing.Order(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, order)
}

func (a *App) OrderCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	order, err := a.Billing.CancelOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, order)
}

// AdminOrderComplete records payment of an order.
func (a *App) AdminOrderComplete(w http.ResponseWriter, r *http.Request) {
	order, invoice, err := a.Billing.CompleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().
		Str("order_id", order.ID).
		Str("invoice", invoice.FullNumber).
		Str("admin_id", a.currentUserID(r)).
		Msg("order completed")
	a.json(w, http.StatusOK, orderResponse{Order: order, Invoice: invoice})
}
