package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidIdentifier is returned for schema or table names that cannot be
// spliced into SQL safely.
var ErrInvalidIdentifier = errors.New("database: invalid identifier")

// Querier is satisfied by *sql.DB, *sql.Tx and *DB.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ValidIdentifier reports whether s can be used as a schema or table name.
// SQLite cannot bind identifiers, so anything outside [A-Za-z_][A-Za-z0-9_]*
// is rejected.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// TableExists reports whether table exists in the given schema.
func TableExists(ctx context.Context, q Querier, schema, table string) (bool, error) {
	if !ValidIdentifier(schema) {
		return false, fmt.Errorf("%w: %q", ErrInvalidIdentifier, schema)
	}
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+schema+".sqlite_master WHERE type = 'table' AND name = ?", //nolint:gosec // schema validated above
		table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s.%s: %w", schema, table, err)
	}
	return n > 0, nil
}
