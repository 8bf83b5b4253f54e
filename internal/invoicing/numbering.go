// Package invoicing allocates invoice numbers per reset window and formats
// them for display.
package invoicing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"billing/internal/domain"
)

// ResetPolicy controls how often invoice counters restart at 1.
type ResetPolicy string

const (
	ResetNever    ResetPolicy = "never"
	ResetDaily    ResetPolicy = "daily"
	ResetMonthly  ResetPolicy = "monthly"
	ResetAnnually ResetPolicy = "annually"
)

// DefaultReset is used when no policy is configured.
const DefaultReset = ResetMonthly

const globalWindowID = "all"

// ParseResetPolicy accepts the configured policy name. An empty value selects
// the monthly default.
func ParseResetPolicy(v string) (ResetPolicy, error) {
	switch p := ResetPolicy(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return DefaultReset, nil
	case ResetNever, ResetDaily, ResetMonthly, ResetAnnually:
		return p, nil
	case "yearly", "annual":
		return ResetAnnually, nil
	default:
		return "", fmt.Errorf("%w: unknown invoice counter reset %q", domain.ErrImproperlyConfigured, v)
	}
}

// WindowKey identifies the reset window the issued date falls into.
func WindowKey(policy ResetPolicy, issued time.Time) string {
	switch policy {
	case ResetDaily:
		return issued.Format("2006-01-02")
	case ResetMonthly:
		return issued.Format("2006-01")
	case ResetAnnually:
		return issued.Format("2006")
	default:
		return globalWindowID
	}
}

// Scope is one independent counter.
type Scope struct {
	Type   domain.InvoiceType
	Window string
}

// Sequence hands out consecutive numbers per scope, starting at 1. Every
// implementation must be safe for concurrent use.
type Sequence interface {
	Next(ctx context.Context, scope Scope) (int64, error)
}

// MemorySequence keeps counters in process memory.
type MemorySequence struct {
	mu       sync.Mutex
	counters map[Scope]int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[Scope]int64)}
}

func (s *MemorySequence) Next(ctx context.Context, scope Scope) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[scope]++
	return s.counters[scope], nil
}

// Numberer assigns numbers and display numbers to invoices.
type Numberer struct {
	Reset     ResetPolicy
	Sequence  Sequence
	Formatter *Formatter
}

// NewNumberer wires a numberer from its parts.
func NewNumberer(reset ResetPolicy, seq Sequence, f *Formatter) *Numberer {
	return &Numberer{Reset: reset, Sequence: seq, Formatter: f}
}

// Assign numbers inv within the window of its issued date. Invoices that
// already carry a number keep it; duplicates never draw a new one.
func (n *Numberer) Assign(ctx context.Context, inv *domain.Invoice) error {
	if inv.Number > 0 {
		if inv.FullNumber == "" {
			full, err := n.Formatter.Format(*inv)
			if err != nil {
				return err
			}
			inv.FullNumber = full
		}
		return nil
	}
	if inv.Type == domain.InvoiceTypeDuplicate {
		return fmt.Errorf("duplicate invoice must copy its number: %w", domain.ErrImproperlyConfigured)
	}
	window := WindowKey(n.Reset, inv.Issued)
	number, err := n.Sequence.Next(ctx, Scope{Type: inv.Type, Window: window})
	if err != nil {
		return fmt.Errorf("allocate invoice number: %w", err)
	}
	inv.Number = number
	inv.WindowKey = window
	full, err := n.Formatter.Format(*inv)
	if err != nil {
		return err
	}
	inv.FullNumber = full
	return nil
}
