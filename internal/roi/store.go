package roi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/database"
)

// Store reads and writes per-device rule documents.
type Store interface {
	// FetchRoiData returns the stored config for key, or nil when the device
	// has no document yet.
	FetchRoiData(ctx context.Context, schema, key string) (*RegionAIConfig, error)

	// SaveRegionConfig merges cfg into the stored document and returns the
	// number of rows written.
	SaveRegionConfig(ctx context.Context, schema, key string, cfg RegionAIConfig) (int64, error)
}

// SQLiteStore keeps documents in <schema>.<table>(device_key, document,
// updated_at). The schema is "main" for locally owned devices or the name an
// upstream tenant database is attached under.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore creates a document store over table.
func NewSQLiteStore(db *sql.DB, table string) *SQLiteStore {
	return &SQLiteStore{db: db, table: table}
}

func (s *SQLiteStore) qualified(schema string) (string, error) {
	if !database.ValidIdentifier(schema) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}
	if !database.ValidIdentifier(s.table) {
		return "", fmt.Errorf("%w: table %q", ErrInvalidSchema, s.table)
	}
	return schema + "." + s.table, nil
}

// FetchRoiData returns the stored config for key. A missing table or row
// yields nil, nil.
func (s *SQLiteStore) FetchRoiData(ctx context.Context, schema, key string) (*RegionAIConfig, error) {
	doc, err := s.fetchDocument(ctx, s.db, schema, key)
	if err != nil || doc == nil {
		return nil, err
	}
	return DecodeDocument(doc)
}

// SaveRegionConfig applies the document-level merge and upserts the result
// in a single transaction.
func (s *SQLiteStore) SaveRegionConfig(ctx context.Context, schema, key string, cfg RegionAIConfig) (int64, error) {
	table, err := s.qualified(schema)
	if err != nil {
		return 0, err
	}

	incoming, err := cfg.ToDocument()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	existing, err := s.fetchDocument(ctx, tx, schema, key)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(MergeDocument(existing, incoming))
	if err != nil {
		return 0, fmt.Errorf("encoding document: %w", err)
	}

	//nolint:gosec // table is a validated identifier
	res, err := tx.ExecContext(ctx, `
		INSERT INTO `+table+` (device_key, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(device_key) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		key, string(body), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("writing document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing document: %w", err)
	}
	return n, nil
}

// fetchDocument returns the raw stored document, or nil when there is none.
func (s *SQLiteStore) fetchDocument(ctx context.Context, q database.Querier, schema, key string) (Document, error) {
	table, err := s.qualified(schema)
	if err != nil {
		return nil, err
	}

	exists, err := database.TableExists(ctx, q, schema, s.table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var body string
	//nolint:gosec // table is a validated identifier
	err = q.QueryRowContext(ctx, "SELECT document FROM "+table+" WHERE device_key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return ParseDocument([]byte(body))
}
