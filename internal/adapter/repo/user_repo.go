package repo

import (
	"context"

	"billing/internal/domain"
	"billing/internal/infra"
	"billing/internal/sqlinline"
)

// UserDirectoryPG resolves notification contacts from the users table.
type UserDirectoryPG struct {
	sql infra.SQLExecutor
}

func NewUserDirectory(sql infra.SQLExecutor) *UserDirectoryPG {
	return &UserDirectoryPG{sql: sql}
}

func (r *UserDirectoryPG) Contact(ctx context.Context, userID string) (*domain.Contact, error) {
	var c domain.Contact
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectUserContact, userID).Scan(&c.UserID, &c.Email, &c.Name, &c.Locale); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ domain.UserDirectory = (*UserDirectoryPG)(nil)
