package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"billing/internal/domain"
	"billing/internal/http/handlers"
	"billing/internal/middleware"
)

// Options configures the router.
type Options struct {
	JWTSecret       string
	CORSOrigins     []string
	TrustedProxies  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	Metrics         http.Handler
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP(opts.TrustedProxies),
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/plans", app.PlansList)
		r.Get("/plans/{id}", app.PlanGet)
		r.Get("/tax/quote", app.TaxQuote)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret))

			r.Route("/me", func(r chi.Router) {
				r.Get("/plan", app.MyPlan)
				r.Get("/plan/change/{planID}", app.PlanChangeQuote)
				r.Post("/plan/change", app.PlanChange)
				r.Get("/billing", app.BillingGet)
				r.Put("/billing", app.BillingPut)
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.OrdersCreate)
				r.Get("/", app.OrdersList)
				r.Get("/{id}", app.OrderGet)
				r.Post("/{id}/cancel", app.OrderCancel)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", app.InvoicesList)
				r.Get("/{id}", app.InvoiceGet)
				r.Get("/{id}/document", app.InvoiceDocument)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.UserRoleAdmin))
				r.Get("/plans", app.AdminPlansList)
				r.Post("/orders/{id}/complete", app.AdminOrderComplete)
				r.Post("/invoices/{id}/duplicate", app.AdminInvoiceDuplicate)
				r.Get("/invoices/export", app.AdminInvoicesExport)
			})
		})
	})

	return r
}
