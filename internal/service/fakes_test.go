package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing/internal/domain"
	"billing/internal/invoicing"
	"billing/internal/notify"
	"billing/internal/planchange"
	"billing/internal/taxation"
)

type memPlans struct{ plans map[int64]domain.Plan }

func (m *memPlans) List(_ context.Context, visibleOnly bool) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, p := range m.plans {
		if visibleOnly && !p.Visible {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memPlans) Get(_ context.Context, id int64) (*domain.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memPlans) Default(context.Context) (*domain.Plan, error) {
	for _, p := range m.plans {
		if p.Default {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memUserPlans struct {
	mu    sync.Mutex
	plans map[string]domain.UserPlan
}

func (m *memUserPlans) Get(_ context.Context, userID string) (*domain.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.plans[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &up, nil
}

func (m *memUserPlans) Save(_ context.Context, up *domain.UserPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[up.UserID] = *up
	return nil
}

func (m *memUserPlans) ListExpired(_ context.Context, today time.Time) ([]domain.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.UserPlan
	for _, up := range m.plans {
		if up.Active && up.Expire != nil && up.Expire.Before(today) {
			out = append(out, up)
		}
	}
	return out, nil
}

func (m *memUserPlans) ListExpiringOn(_ context.Context, day time.Time) ([]domain.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.UserPlan
	for _, up := range m.plans {
		if up.Active && up.Expire != nil && up.Expire.Equal(day) {
			out = append(out, up)
		}
	}
	return out, nil
}

func (m *memUserPlans) DeactivateExpired(_ context.Context, userID string, today time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.plans[userID]
	if !ok || !up.Active || up.Expire == nil || !up.Expire.Before(today) {
		return false, nil
	}
	up.Active = false
	m.plans[userID] = up
	return true, nil
}

// staleUserPlans lists a snapshot taken before a concurrent renewal.
type staleUserPlans struct {
	*memUserPlans
	listed []domain.UserPlan
}

func (s staleUserPlans) ListExpired(context.Context, time.Time) ([]domain.UserPlan, error) {
	return s.listed, nil
}

type memBilling struct{ infos map[string]domain.BillingInfo }

func (m *memBilling) Get(_ context.Context, userID string) (*domain.BillingInfo, error) {
	b, ok := m.infos[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (m *memBilling) Save(_ context.Context, info *domain.BillingInfo) error {
	m.infos[info.UserID] = *info
	return nil
}

type memOrders struct {
	orders map[string]domain.Order
	// snapshot, when set, is returned by Get instead of the stored order, the
	// way a reader that raced a concurrent update sees it.
	snapshot map[string]domain.Order
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := m.snapshot[id]; ok {
		return &o, nil
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o *domain.Order, from domain.OrderStatus) error {
	stored, ok := m.orders[o.ID]
	if !ok || stored.Status != from {
		return domain.ErrOrderState
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string, limit int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memInvoices struct{ invoices []domain.Invoice }

func (m *memInvoices) Create(_ context.Context, inv *domain.Invoice) error {
	m.invoices = append(m.invoices, *inv)
	return nil
}

func (m *memInvoices) Get(_ context.Context, id string) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memInvoices) ListByUser(_ context.Context, userID string, limit int) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInvoices) ListIssuedBetween(_ context.Context, from, to time.Time) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if !inv.Issued.Before(from) && !inv.Issued.After(to) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memInvoices) ofType(kind domain.InvoiceType) []domain.Invoice {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.Type == kind {
			out = append(out, inv)
		}
	}
	return out
}

// failingInvoices rejects every insert.
type failingInvoices struct{ *memInvoices }

func (failingInvoices) Create(context.Context, *domain.Invoice) error {
	return errors.New("insert failed")
}

// countingTransactor runs fn on fixed repositories and records the outcome.
type countingTransactor struct {
	repos  Repositories
	calls  int
	failed int
}

func (c *countingTransactor) InTx(ctx context.Context, fn func(context.Context, Repositories) error) error {
	c.calls++
	err := fn(ctx, c.repos)
	if err != nil {
		c.failed++
	}
	return err
}

type memUsers struct{}

func (memUsers) Contact(_ context.Context, userID string) (*domain.Contact, error) {
	return &domain.Contact{UserID: userID, Email: userID + "@example.com", Name: userID}, nil
}

type recordingNotifier struct{ events []notify.Event }

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	r.events = append(r.events, e)
	return nil
}

type stubValidator map[string]bool

func (v stubValidator) Validate(_ context.Context, country, number string) (bool, error) {
	return v[country+number], nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fixture struct {
	svc       *Service
	clock     *clock
	plans     *memPlans
	userPlans *memUserPlans
	billing   *memBilling
	orders    *memOrders
	invoices  *memInvoices
	notifier  *recordingNotifier
}

var testIssuer = domain.IssuerData{
	Name: "Seller Ltd", Street: "Long 1", Zipcode: "00-950", City: "Warsaw", Country: "PL", TaxNumber: "PL1234567890",
}

func catalog() map[int64]domain.Plan {
	return map[int64]domain.Plan{
		1: {ID: 1, Name: "free", Available: true, Visible: true, Default: true, Position: 0},
		2: {ID: 2, Name: "standard", Available: true, Visible: true, Position: 1, Pricings: []domain.Pricing{
			{ID: 21, PlanID: 2, Name: "monthly", Period: 30, Price: decimal.RequireFromString("30.00")},
			{ID: 22, PlanID: 2, Name: "bimonthly", Period: 60, Price: decimal.RequireFromString("57.00")},
		}},
		3: {ID: 3, Name: "premium", Available: true, Visible: true, Position: 2, Pricings: []domain.Pricing{
			{ID: 31, PlanID: 3, Name: "monthly", Period: 30, Price: decimal.RequireFromString("41.70")},
			{ID: 32, PlanID: 3, Name: "bimonthly", Period: 60, Price: decimal.RequireFromString("80.40")},
		}},
		4: {ID: 4, Name: "retired", Available: false, Visible: false, Position: 3, Pricings: []domain.Pricing{
			{ID: 41, PlanID: 4, Name: "monthly", Period: 30, Price: decimal.RequireFromString("123.00")},
		}},
		5: {ID: 5, Name: "business", Available: true, Visible: true, Position: 4, Pricings: []domain.Pricing{
			{ID: 51, PlanID: 5, Name: "monthly", Period: 30, Price: decimal.RequireFromString("123.00")},
		}},
	}
}

func newFixture(t *testing.T, reset invoicing.ResetPolicy, issuer domain.IssuerData) *fixture {
	t.Helper()
	f := &fixture{
		clock:     &clock{t: time.Date(2010, 5, 30, 10, 0, 0, 0, time.UTC)},
		plans:     &memPlans{plans: catalog()},
		userPlans: &memUserPlans{plans: map[string]domain.UserPlan{}},
		billing:   &memBilling{infos: map[string]domain.BillingInfo{}},
		orders:    &memOrders{orders: map[string]domain.Order{}},
		invoices:  &memInvoices{},
		notifier:  &recordingNotifier{},
	}
	tax, err := taxation.NewEUPolicy("PL", domain.RatePtr("23"), stubValidator{"DE123456789": true}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	svc, err := New(Options{
		Repos: Repositories{
			Plans: f.plans, UserPlans: f.userPlans, Billing: f.billing,
			Orders: f.orders, Invoices: f.invoices, Users: memUsers{},
		},
		Numberer:   invoicing.NewNumberer(reset, invoicing.NewMemorySequence(), invoicing.MustFormatter(invoicing.DefaultNumberFormat)),
		PlanChange: planchange.Base{},
		Taxation:   tax,
		Notifier:   f.notifier,
		Currency:   "eur",
		Issuer:     issuer,
		Logger:     zerolog.Nop(),
		Now:        f.clock.now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) setBuyer(userID, country, taxNumber string) {
	f.billing.infos[userID] = domain.BillingInfo{
		UserID: userID, Name: "Buyer " + userID, Street: "Short 2", Zipcode: "10-100", City: "Town",
		Country: country, TaxNumber: taxNumber,
	}
}
