package repo

import (
	"context"
	"fmt"

	"billing/internal/infra"
	"billing/internal/invoicing"
	"billing/internal/sqlinline"
)

// InvoiceSequencePG allocates invoice numbers from the invoice_counters
// table. The upsert takes a row lock on the (type, window) counter, so
// concurrent issuers never receive the same number.
type InvoiceSequencePG struct {
	sql infra.SQLExecutor
}

func NewInvoiceSequence(sql infra.SQLExecutor) *InvoiceSequencePG {
	return &InvoiceSequencePG{sql: sql}
}

func (s *InvoiceSequencePG) Next(ctx context.Context, scope invoicing.Scope) (int64, error) {
	var n int64
	if err := s.sql.QueryRow(ctx, sqlinline.QNextInvoiceNumber, string(scope.Type), scope.Window).Scan(&n); err != nil {
		return 0, fmt.Errorf("next invoice number for %s/%s: %w", scope.Type, scope.Window, err)
	}
	return n, nil
}

var _ invoicing.Sequence = (*InvoiceSequencePG)(nil)
