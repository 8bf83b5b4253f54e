package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/sqlinline"
)

// InvoiceRepositoryPG persists issued invoices.
type InvoiceRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewInvoiceRepository(sql infra.SQLExecutor) *InvoiceRepositoryPG {
	return &InvoiceRepositoryPG{sql: sql}
}

// Create stores an invoice. A number collision inside its window is reported
// as domain.ErrDuplicateNumber.
func (r *InvoiceRepositoryPG) Create(ctx context.Context, i *domain.Invoice) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertInvoice,
		i.ID, i.UserID, i.OrderID, i.Number, i.FullNumber, i.WindowKey, string(i.Type), i.Issued, i.SellingDate, i.PaymentDate,
		i.ItemDescription, i.Quantity, i.UnitPriceNet.String(), i.TotalNet.String(), i.Total.String(), i.TaxTotal.String(), decimalArg(i.Tax), i.Currency,
		i.BuyerName, i.BuyerStreet, i.BuyerZipcode, i.BuyerCity, i.BuyerCountry, i.BuyerTaxNumber,
		i.ShippingName, i.ShippingStreet, i.ShippingZipcode, i.ShippingCity, i.ShippingCountry, i.RequireShipment,
		i.IssuerName, i.IssuerStreet, i.IssuerZipcode, i.IssuerCity, i.IssuerCountry, i.IssuerTaxNumber,
		i.CreatedAt,
	)
	if isDuplicateNumber(err) {
		return fmt.Errorf("invoice %s: %w", i.FullNumber, domain.ErrDuplicateNumber)
	}
	return err
}

func (r *InvoiceRepositoryPG) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}
	inv, err := scanInvoice(r.sql.QueryRow(ctx, sqlinline.QSelectInvoiceByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Invoice, error) {
	return r.list(ctx, sqlinline.QSelectInvoicesByUser, userID, limit)
}

func (r *InvoiceRepositoryPG) ListIssuedBetween(ctx context.Context, from, to time.Time) ([]domain.Invoice, error) {
	return r.list(ctx, sqlinline.QSelectInvoicesIssuedBetween, domain.Day(from), domain.Day(to))
}

func (r *InvoiceRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		i                                    domain.Invoice
		kind                                 string
		unitPrice, totalNet, total, taxTotal string
		tax                                  *string
	)
	err := row.Scan(
		&i.ID, &i.UserID, &i.OrderID, &i.Number, &i.FullNumber, &i.WindowKey, &kind, &i.Issued, &i.SellingDate, &i.PaymentDate,
		&i.ItemDescription, &i.Quantity, &unitPrice, &totalNet, &total, &taxTotal, &tax, &i.Currency,
		&i.BuyerName, &i.BuyerStreet, &i.BuyerZipcode, &i.BuyerCity, &i.BuyerCountry, &i.BuyerTaxNumber,
		&i.ShippingName, &i.ShippingStreet, &i.ShippingZipcode, &i.ShippingCity, &i.ShippingCountry, &i.RequireShipment,
		&i.IssuerName, &i.IssuerStreet, &i.IssuerZipcode, &i.IssuerCity, &i.IssuerCountry, &i.IssuerTaxNumber,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.Type = domain.InvoiceType(kind)
	if i.UnitPriceNet, err = parseDecimal("unit_price_net", unitPrice); err != nil {
		return nil, err
	}
	if i.TotalNet, err = parseDecimal("total_net", totalNet); err != nil {
		return nil, err
	}
	if i.Total, err = parseDecimal("total", total); err != nil {
		return nil, err
	}
	if i.TaxTotal, err = parseDecimal("tax_total", taxTotal); err != nil {
		return nil, err
	}
	if i.Tax, err = parseNullDecimal("tax", tax); err != nil {
		return nil, err
	}
	return &i, nil
}

func isDuplicateNumber(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "invoices_type_window_number_key"
}

var _ domain.InvoiceRepository = (*InvoiceRepositoryPG)(nil)
