// Package database provides SQLite connectivity for the ROI core.
//
// This package manages:
//   - The local database (owned devices, audit log) with WAL mode
//   - Tenant schemas ATTACHed to every connection so the upstream camera and
//     rule document tables are reachable as <schema>.<table>
//   - Embedded, versioned migrations applied to the main schema only
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:   cfg.Database.Path,
//	    Attach: cfg.Upstream.Schemas,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns must be nullable or carry defaults,
// and every .up.sql has a matching .down.sql.
package database
