package repo

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// assign copies values into scan destinations; nil leaves the zero value.
func assign(dest []any, values ...any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.values == nil {
		return pgx.ErrNoRows
	}
	return assign(dest, r.values...)
}

type stubRows struct {
	data [][]any
	pos  int
}

func (r *stubRows) Close() {}
func (r *stubRows) Err() error { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error) { return nil, fmt.Errorf("values not supported in test rows") }
func (r *stubRows) RawValues() [][]byte { return nil }
func (r *stubRows) Conn() *pgx.Conn { return nil }

func (r *stubRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1]...)
}

type call struct {
	marker string
	args   []any
}

// stubExecutor answers queries by their --sql marker.
type stubExecutor struct {
	rows    map[string][][]any
	row     map[string]stubRow
	execTag map[string]pgconn.CommandTag
	execErr map[string]error
	calls   []call
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		rows:    map[string][][]any{},
		row:     map[string]stubRow{},
		execTag: map[string]pgconn.CommandTag{},
		execErr: map[string]error{},
	}
}

func markerOf(query string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(query), "\n", 2)[0])
	return strings.TrimPrefix(line, "--sql ")
}

func (s *stubExecutor) record(query string, args []any) string {
	m := markerOf(query)
	s.calls = append(s.calls, call{marker: m, args: args})
	return m
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	m := s.record(query, args)
	return s.execTag[m], s.execErr[m]
}

func (s *stubExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	return s.row[s.record(query, args)]
}

func (s *stubExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	return &stubRows{data: s.rows[s.record(query, args)]}, nil
}
