package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
			t.Error("database directory was not created")
		}
	})

	t.Run("rejects empty attachment path", func(t *testing.T) {
		_, err := Open(Config{
			Path:   filepath.Join(t.TempDir(), "test.db"),
			Attach: map[string]string{"tenant_a": ""},
		})
		if err == nil {
			t.Fatal("Open() error = nil, want error for empty attachment path")
		}
	})
}

// TestOpen_AttachesSchemas verifies attached databases are visible by schema name.
func TestOpen_AttachesSchemas(t *testing.T) {
	dir := t.TempDir()
	tenantPath := filepath.Join(dir, "tenant_a.db")
	seedTenant(t, tenantPath)

	db, err := Open(Config{
		Path:        filepath.Join(dir, "main.db"),
		BusyTimeout: 5,
		Attach:      map[string]string{"tenant_a": tenantPath},
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	var name string
	if err := db.QueryRowContext(ctx, "SELECT name FROM tenant_a.cameras WHERE id = 'cam-1'").Scan(&name); err != nil {
		t.Fatalf("query attached schema: %v", err)
	}
	if name != "Gate" {
		t.Errorf("name = %q, want Gate", name)
	}

	if got := db.Attached(); len(got) != 1 || got[0] != "tenant_a" {
		t.Errorf("Attached() = %v, want [tenant_a]", got)
	}

	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_database_list")
	if err != nil {
		t.Fatalf("pragma_database_list: %v", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		seen[n] = true
	}
	if !seen[MainSchema] || !seen["tenant_a"] {
		t.Errorf("pragma_database_list = %v, want main and tenant_a", seen)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

func TestBeginTx(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE tx_test (id INTEGER PRIMARY KEY, value TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	tests := []struct {
		name   string
		commit bool
		want   int
	}{
		{"commit keeps row", true, 1},
		{"rollback discards row", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.ExecContext(ctx, "DELETE FROM tx_test"); err != nil {
				t.Fatalf("DELETE error = %v", err)
			}

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("BeginTx() error = %v", err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES (?)", tt.name); err != nil {
				t.Fatalf("INSERT error = %v", err)
			}
			if tt.commit {
				err = tx.Commit()
			} else {
				err = tx.Rollback()
			}
			if err != nil {
				t.Fatalf("finish tx error = %v", err)
			}

			var count int
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tx_test").Scan(&count); err != nil {
				t.Fatalf("SELECT error = %v", err)
			}
			if count != tt.want {
				t.Errorf("rows = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestExecContext_WrapsError(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	_, err := db.ExecContext(context.Background(), "INSERT INTO missing_table VALUES (1)")
	if err == nil {
		t.Fatal("ExecContext() error = nil, want error")
	}
}

func TestStats(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if stats := db.Stats(); stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %v, want 1 (SQLite single writer)", stats.MaxOpenConnections)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

// seedTenant writes a tenant database file with one camera row.
func seedTenant(t *testing.T, path string) {
	t.Helper()

	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open tenant db: %v", err)
	}
	defer raw.Close()

	if _, err := raw.Exec(`
		CREATE TABLE cameras (id TEXT PRIMARY KEY, name TEXT NOT NULL);
		INSERT INTO cameras (id, name) VALUES ('cam-1', 'Gate');
	`); err != nil {
		t.Fatalf("seed tenant db: %v", err)
	}
}

// ============================================================================
// Identifiers
// ============================================================================

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"main", true},
		{"tenant_a", true},
		{"_x1", true},
		{"", false},
		{"1tenant", false},
		{"tenant-a", false},
		{"a;DROP TABLE x", false},
		{"a.b", false},
	}
	for _, tt := range tests {
		if got := ValidIdentifier(tt.in); got != tt.want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTableExists(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE present (id INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	ok, err := TableExists(ctx, db, MainSchema, "present")
	if err != nil || !ok {
		t.Errorf("TableExists(present) = %v, %v, want true, nil", ok, err)
	}
	ok, err = TableExists(ctx, db, MainSchema, "absent")
	if err != nil || ok {
		t.Errorf("TableExists(absent) = %v, %v, want false, nil", ok, err)
	}
	if _, err := TableExists(ctx, db, "bad-name", "present"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("TableExists(bad-name) error = %v, want ErrInvalidIdentifier", err)
	}
}
