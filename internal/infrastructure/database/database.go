package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Database configuration constants.
const (
	dirPermissions  = 0750
	filePermissions = 0600
	msPerSecond     = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute

	// MainSchema and TempSchema are the SQLite built-in schema names.
	MainSchema = "main"
	TempSchema = "temp"
)

// driverSeq numbers the per-Open driver registrations; sql.Register panics on
// duplicate names.
var driverSeq atomic.Uint64

// DB wraps a sql.DB connection with migration support and health checks.
type DB struct {
	*sql.DB
	path     string
	attached []string
}

// Config contains database configuration options.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int

	// Attach maps schema names to database files that are ATTACHed to every
	// connection. Names must already be validated as plain identifiers.
	Attach map[string]string
}

// Open creates a new database connection with the specified configuration.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Registers a driver whose connect hook attaches cfg.Attach schemas
//  3. Configures WAL mode and busy timeout
//  4. Verifies the connection with a ping
//
// Attachments live on the connection, so the hook re-applies them whenever
// the pool replaces its connection.
func Open(cfg Config) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	names := make([]string, 0, len(cfg.Attach))
	for name := range cfg.Attach {
		names = append(names, name)
	}
	sort.Strings(names)

	driverName, err := registerDriver(names, cfg.Attach)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer; a single connection also keeps
	// attachments and transactions on the same handle.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	db := &DB{
		DB:       sqlDB,
		path:     cfg.Path,
		attached: names,
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // first run creates file later

	return db, nil
}

// registerDriver registers a sqlite3 driver that ATTACHes the named schemas
// on every new connection and returns its name.
func registerDriver(names []string, files map[string]string) (string, error) {
	for _, name := range names {
		if files[name] == "" {
			return "", fmt.Errorf("attach %s: empty path", name)
		}
	}

	name := fmt.Sprintf("sqlite3_roicore_%d", driverSeq.Add(1))
	sql.Register(name, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, schema := range names {
				// Schema names cannot be bound; they are validated identifiers.
				stmt := fmt.Sprintf("ATTACH DATABASE ? AS %s", schema)
				if _, err := conn.Exec(stmt, []driver.Value{files[schema]}); err != nil {
					return fmt.Errorf("attaching %s: %w", schema, err)
				}
			}
			return nil
		},
	})
	return name, nil
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Attached returns the configured attachment schema names, sorted.
func (db *DB) Attached() []string {
	out := make([]string, len(db.attached))
	copy(out, db.attached)
	return out
}

// HealthCheck verifies the database is accessible and functioning.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stats returns database connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// ExecContext executes a query that doesn't return rows, wrapping any error.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

// BeginTx starts a new transaction with the given options.
//
// Example:
//
//	tx, err := db.BeginTx(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback() // No-op if committed
//
//	// ... execute queries on tx ...
//
//	return tx.Commit()
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
