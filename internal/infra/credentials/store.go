package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"billing/internal/infra"
	"billing/internal/sqlinline"
)

const (
	ProviderSMTP = "smtp"
)

// Store keeps integration secrets in the integration_tokens table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// SMTPPassword returns the stored relay password, or "" when none is set.
func (s *Store) SMTPPassword(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderSMTP)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetSMTPPassword stores the relay password together with the user it
// belongs to.
func (s *Store) SetSMTPPassword(ctx context.Context, username, password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		return errors.New("smtp password is required")
	}
	props := map[string]any{}
	if u := strings.TrimSpace(username); u != "" {
		props["username"] = u
	}
	return s.upsert(ctx, ProviderSMTP, password, props)
}

// Provider describes a stored credential without exposing it.
type Provider struct {
	Name      string
	UpdatedAt time.Time
}

// Providers lists the stored credentials.
func (s *Store) Providers(ctx context.Context) ([]Provider, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectIntegrationProviders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.Name, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
