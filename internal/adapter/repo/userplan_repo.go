package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/sqlinline"
)

// UserPlanRepositoryPG persists subscription state.
type UserPlanRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewUserPlanRepository(sql infra.SQLExecutor) *UserPlanRepositoryPG {
	return &UserPlanRepositoryPG{sql: sql}
}

func (r *UserPlanRepositoryPG) Get(ctx context.Context, userID string) (*domain.UserPlan, error) {
	up, err := scanUserPlan(r.sql.QueryRow(ctx, sqlinline.QSelectUserPlan, userID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return up, nil
}

// Save upserts the plan state and refreshes UpdatedAt.
func (r *UserPlanRepositoryPG) Save(ctx context.Context, up *domain.UserPlan) error {
	var expire *time.Time
	if up.Expire != nil {
		d := domain.Day(*up.Expire)
		expire = &d
	}
	return r.sql.QueryRow(ctx, sqlinline.QUpsertUserPlan, up.UserID, up.PlanID, expire, up.Active).Scan(&up.UpdatedAt)
}

func (r *UserPlanRepositoryPG) ListExpired(ctx context.Context, today time.Time) ([]domain.UserPlan, error) {
	return r.list(ctx, sqlinline.QSelectExpiredUserPlans, domain.Day(today))
}

func (r *UserPlanRepositoryPG) ListExpiringOn(ctx context.Context, day time.Time) ([]domain.UserPlan, error) {
	return r.list(ctx, sqlinline.QSelectUserPlansExpiringOn, domain.Day(day))
}

func (r *UserPlanRepositoryPG) DeactivateExpired(ctx context.Context, userID string, today time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeactivateExpiredUserPlan, userID, domain.Day(today))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserPlanRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.UserPlan, error) {
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UserPlan
	for rows.Next() {
		up, err := scanUserPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *up)
	}
	return out, rows.Err()
}

func scanUserPlan(row pgx.Row) (*domain.UserPlan, error) {
	var up domain.UserPlan
	if err := row.Scan(&up.UserID, &up.PlanID, &up.Expire, &up.Active, &up.UpdatedAt); err != nil {
		return nil, err
	}
	if up.Expire != nil {
		d := domain.Day(*up.Expire)
		up.Expire = &d
	}
	return &up, nil
}

var _ domain.UserPlanRepository = (*UserPlanRepositoryPG)(nil)
