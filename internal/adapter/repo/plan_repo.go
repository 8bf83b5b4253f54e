package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/sqlinline"
)

// PlanRepositoryPG reads the plan catalog from PostgreSQL.
type PlanRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPlanRepository creates a new PlanRepositoryPG.
func NewPlanRepository(sql infra.SQLExecutor) *PlanRepositoryPG {
	return &PlanRepositoryPG{sql: sql}
}

// List returns plans ordered by position, with their pricings.
func (r *PlanRepositoryPG) List(ctx context.Context, visibleOnly bool) ([]domain.Plan, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectPlans, visibleOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachPricings(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Get fetches a plan by id.
func (r *PlanRepositoryPG) Get(ctx context.Context, id int64) (*domain.Plan, error) {
	return r.one(ctx, sqlinline.QSelectPlanByID, id)
}

// Default fetches the plan assigned to new users.
func (r *PlanRepositoryPG) Default(ctx context.Context) (*domain.Plan, error) {
	return r.one(ctx, sqlinline.QSelectDefaultPlan)
}

func (r *PlanRepositoryPG) one(ctx context.Context, query string, args ...any) (*domain.Plan, error) {
	p, err := scanPlan(r.sql.QueryRow(ctx, query, args...))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	plans := []domain.Plan{*p}
	if err := r.attachPricings(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

func (r *PlanRepositoryPG) attachPricings(ctx context.Context, plans []domain.Plan) error {
	if len(plans) == 0 {
		return nil
	}
	ids := make([]int64, len(plans))
	index := make(map[int64]int, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
		index[p.ID] = i
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectPricingsByPlans, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pr    domain.Pricing
			price string
		)
		if err := rows.Scan(&pr.ID, &pr.PlanID, &pr.Name, &pr.Period, &price); err != nil {
			return err
		}
		if pr.Price, err = parseDecimal("price", price); err != nil {
			return err
		}
		if i, ok := index[pr.PlanID]; ok {
			plans[i].Pricings = append(plans[i].Pricings, pr)
		}
	}
	return rows.Err()
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var p domain.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Available, &p.Visible, &p.Default, &p.Position); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ domain.PlanRepository = (*PlanRepositoryPG)(nil)
