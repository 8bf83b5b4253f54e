package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"billing/internal/middleware"
)

const dateLayout = "2006-01-02"

func (a *App) InvoicesList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	invoices, err := a.Billing.Invoices(r.Context(), userID, queryLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, items(invoices))
}

func (a *App) InvoiceGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	inv, err := a.Billing.Invoice(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, inv)
}

func (a *App) InvoiceDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	lang := language.Make(middleware.LocaleFromContext(r.Context()))
	doc, err := a.Billing.InvoiceDocument(r.Context(), userID, chi.URLParam(r, "id"), lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func (a *App) AdminInvoiceDuplicate(w http.ResponseWriter, r *http.Request) {
	dup, err := a.Billing.DuplicateInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, dup)
}

// AdminInvoicesExport streams a zip of every document issued between from and
// to (inclusive, YYYY-MM-DD). The range defaults to the current month.
func (a *App) AdminInvoicesExport(w http.ResponseWriter, r *http.Request) {
	today := a.now().UTC()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := today
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "to must be YYYY-MM-DD")
			return
		}
		to = t
	}
	archive, count, err := a.Billing.ExportInvoices(r.Context(), from, to)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("invoices-%s-%s.zip", from.Format(dateLayout), to.Format(dateLayout))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Invoice-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
