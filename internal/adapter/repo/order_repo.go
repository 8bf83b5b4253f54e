package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/sqlinline"
)

// OrderRepositoryPG persists orders.
type OrderRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewOrderRepository(sql infra.SQLExecutor) *OrderRepositoryPG {
	return &OrderRepositoryPG{sql: sql}
}

func (r *OrderRepositoryPG) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertOrder,
		o.ID, o.UserID, o.PlanID, o.PricingID, o.Amount.String(), decimalArg(o.Tax), o.Currency, string(o.Status), o.CreatedAt,
	)
	return err
}

func (r *OrderRepositoryPG) Get(ctx context.Context, id string) (*domain.Order, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.sql.QueryRow(ctx, sqlinline.QSelectOrderByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// UpdateStatus is a compare-and-set on the stored status; a concurrent
// transition makes it fail with domain.ErrOrderState.
func (r *OrderRepositoryPG) UpdateStatus(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateOrderStatus, o.ID, string(o.Status), o.CompletedAt, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderState
	}
	return nil
}

func (r *OrderRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectOrdersByUser, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		amount string
		tax    *string
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.PlanID, &o.PricingID, &amount, &tax, &o.Currency, &status, &o.CreatedAt, &o.CompletedAt); err != nil {
		return nil, err
	}
	var err error
	if o.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	if o.Tax, err = parseNullDecimal("tax", tax); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

var _ domain.OrderRepository = (*OrderRepositoryPG)(nil)
