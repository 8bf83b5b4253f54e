// Package metrics exposes billing counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts billing events. The zero value is not usable; use New.
type Recorder struct {
	registry       *prometheus.Registry
	orders         *prometheus.CounterVec
	invoices       *prometheus.CounterVec
	vatChecks      *prometheus.CounterVec
	accountEvents  *prometheus.CounterVec
	notifyFailures prometheus.Counter
}

// New registers the billing collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "orders_total",
			Help:      "Orders by resulting status.",
		}, []string{"status"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "invoices_issued_total",
			Help:      "Issued invoices by type.",
		}, []string{"type"}),
		vatChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "vat_checks_total",
			Help:      "VIES lookups by outcome.",
		}, []string{"result"}),
		accountEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "account_events_total",
			Help:      "User plan lifecycle events.",
		}, []string{"event"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered.",
		}),
	}
	reg.MustRegister(r.orders, r.invoices, r.vatChecks, r.accountEvents, r.notifyFailures)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Order(status string) {
	if r == nil {
		return
	}
	r.orders.WithLabelValues(status).Inc()
}

func (r *Recorder) Invoice(kind string) {
	if r == nil {
		return
	}
	r.invoices.WithLabelValues(kind).Inc()
}

func (r *Recorder) AccountEvent(event string) {
	if r == nil {
		return
	}
	r.accountEvents.WithLabelValues(event).Inc()
}

func (r *Recorder) NotificationFailed() {
	if r == nil {
		return
	}
	r.notifyFailures.Inc()
}

// VATValidator matches taxation.VATValidator without importing it.
type VATValidator interface {
	Validate(ctx context.Context, country, number string) (bool, error)
}

type instrumentedValidator struct {
	next VATValidator
	rec  *Recorder
}

// InstrumentValidator counts valid, invalid and failed lookups.
func (r *Recorder) InstrumentValidator(next VATValidator) VATValidator {
	return &instrumentedValidator{next: next, rec: r}
}

func (v *instrumentedValidator) Validate(ctx context.Context, country, number string) (bool, error) {
	valid, err := v.next.Validate(ctx, country, number)
	result := "invalid"
	switch {
	case errors.Is(err, context.Canceled):
		result = "canceled"
	case err != nil:
		result = "error"
	case valid:
		result = "valid"
	}
	if v.rec != nil {
		v.rec.vatChecks.WithLabelValues(result).Inc()
	}
	return valid, err
}
