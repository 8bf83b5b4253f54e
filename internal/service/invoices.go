package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"billing/internal/domain"
	"billing/internal/invoicing"
	"billing/pkg/zip"
)

// IssueInvoice snapshots order, buyer and issuer data into a numbered invoice
// of the given type.
func (s *Service) IssueInvoice(ctx context.Context, order domain.Order, kind domain.InvoiceType) (*domain.Invoice, error) {
	inv, err := s.issueInvoice(ctx, s.repos, order, kind)
	if err != nil {
		return nil, err
	}
	s.invoiceIssued(inv)
	return inv, nil
}

func (s *Service) issueInvoice(ctx context.Context, repos Repositories, order domain.Order, kind domain.InvoiceType) (*domain.Invoice, error) {
	if kind == domain.InvoiceTypeDuplicate {
		return nil, fmt.Errorf("%w: duplicates are issued from an invoice", domain.ErrInvoiceType)
	}
	plan, err := repos.Plans.Get(ctx, order.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan %d: %w", order.PlanID, err)
	}
	info, err := s.buyer(ctx, repos, order.UserID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	inv := &domain.Invoice{
		ID:        uuid.NewString(),
		Type:      kind,
		Issued:    today,
		CreatedAt: s.now(),
	}
	inv.CopyFromOrder(order, itemDescription(*plan, order))
	if err := inv.SetIssuer(s.issuer); err != nil {
		return nil, err
	}
	inv.SetBuyer(*info)
	if kind == domain.InvoiceTypeProforma {
		inv.PaymentDate = today.AddDate(0, 0, s.paymentTerm)
	} else {
		selling := today
		if order.CompletedAt != nil {
			selling = domain.Day(*order.CompletedAt)
		}
		inv.SellingDate = &selling
		inv.PaymentDate = selling
	}
	if err := inv.Clean(); err != nil {
		return nil, fmt.Errorf("invoice for order %s: %w", order.ID, err)
	}
	if err := s.numberer.Assign(ctx, inv); err != nil {
		return nil, err
	}
	if err := repos.Invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}
	return inv, nil
}

func (s *Service) invoiceIssued(inv *domain.Invoice) {
	s.metrics.Invoice(string(inv.Type))
	s.logger.Info().Str("invoice_id", inv.ID).Str("number", inv.FullNumber).Str("type", string(inv.Type)).Msg("invoice issued")
}

func itemDescription(plan domain.Plan, order domain.Order) string {
	if order.IsPlanChange() {
		return fmt.Sprintf("Plan change to %s", plan.Name)
	}
	if pricing, ok := plan.Pricing(*order.PricingID); ok {
		return fmt.Sprintf("Plan %s (%s)", plan.Name, pricing.Name)
	}
	return fmt.Sprintf("Plan %s", plan.Name)
}

// DuplicateInvoice issues a copy of an invoice carrying the same number.
func (s *Service) DuplicateInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	src, err := s.repos.Invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}
	if src.Type != domain.InvoiceTypeInvoice {
		return nil, fmt.Errorf("%w: only invoices can be duplicated, got %s", domain.ErrInvoiceType, src.Type)
	}
	dup := src.Duplicate(s.now())
	dup.ID = uuid.NewString()
	dup.CreatedAt = s.now()
	if err := s.numberer.Assign(ctx, &dup); err != nil {
		return nil, err
	}
	if err := s.repos.Invoices.Create(ctx, &dup); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}
	s.metrics.Invoice(string(dup.Type))
	return &dup, nil
}

// Invoice returns an invoice owned by userID; an empty userID skips the
// ownership check.
func (s *Service) Invoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error) {
	inv, err := s.repos.Invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if userID != "" && inv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// Invoices lists the most recent invoices of a user.
func (s *Service) Invoices(ctx context.Context, userID string, limit int) ([]domain.Invoice, error) {
	return s.repos.Invoices.ListByUser(ctx, userID, clampLimit(limit))
}

// Document is a rendered invoice ready for download.
type Document struct {
	Filename string
	Data     []byte
}

// InvoiceDocument renders an invoice for lang, reusing the stored copy when
// present. language.Und selects the service default.
func (s *Service) InvoiceDocument(ctx context.Context, userID, invoiceID string, lang language.Tag) (*Document, error) {
	inv, err := s.Invoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	data, err := s.document(ctx, *inv, lang)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: DocumentFilename(*inv), Data: data}, nil
}

func (s *Service) document(ctx context.Context, inv domain.Invoice, lang language.Tag) ([]byte, error) {
	if lang == language.Und {
		lang = s.lang
	}
	key := documentKey(inv, lang)
	if s.documents != nil {
		data, err := s.documents.Read(ctx, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("invoice_id", inv.ID).Msg("read stored document")
		}
	}
	data, err := invoicing.Render(lang, inv)
	if err != nil {
		return nil, err
	}
	if s.documents != nil {
		if _, err := s.documents.Write(ctx, key, data); err != nil {
			s.logger.Warn().Err(err).Str("invoice_id", inv.ID).Msg("store document")
		}
	}
	return data, nil
}

func documentKey(inv domain.Invoice, lang language.Tag) string {
	base, _ := lang.Base()
	return fmt.Sprintf("invoices/%s/%s.%s.txt", inv.Issued.Format("2006/01"), inv.ID, base)
}

// DocumentFilename derives a download name from the invoice display number.
func DocumentFilename(inv domain.Invoice) string {
	name := strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(inv.FullNumber)
	if name == "" {
		name = inv.ID
	}
	if inv.Type == domain.InvoiceTypeDuplicate {
		name += "-duplicate"
	}
	return name + ".txt"
}

// ExportInvoices archives the documents of every invoice issued in
// [from, to].
func (s *Service) ExportInvoices(ctx context.Context, from, to time.Time) ([]byte, int, error) {
	from, to = domain.Day(from), domain.Day(to)
	if to.Before(from) {
		return nil, 0, fmt.Errorf("%w: export range ends before it starts", domain.ErrInvalidInput)
	}
	invoices, err := s.repos.Invoices.ListIssuedBetween(ctx, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	entries := make([]zip.Entry, 0, len(invoices))
	seen := make(map[string]int, len(invoices))
	for _, inv := range invoices {
		data, err := s.document(ctx, inv, s.lang)
		if err != nil {
			return nil, 0, err
		}
		name := DocumentFilename(inv)
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s-%d.txt", strings.TrimSuffix(name, ".txt"), n+1)
		}
		seen[DocumentFilename(inv)]++
		entries = append(entries, zip.Entry{Filename: name, Modified: inv.CreatedAt, Data: data})
	}
	archive, err := zip.Archive(entries)
	if err != nil {
		return nil, 0, err
	}
	return archive, len(entries), nil
}
