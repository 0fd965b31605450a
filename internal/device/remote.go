package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/database"
)

// Row is one camera as read from an upstream tenant schema.
type Row struct {
	Schema         string
	ExternalID     string
	Name           string
	RTSPURL        string
	Status         string
	Location       string
	CameraSettings string
	SSHHost        string
	SSHPort        int
	SSHUser        string
}

// Remote is the upstream datastore the directory composes per refresh.
type Remote interface {
	// ListSchemas returns every tenant schema that may hold cameras.
	ListSchemas(ctx context.Context) ([]string, error)

	// ListCameras returns the camera rows of one schema, each tagged with
	// it. A schema without a camera table has no rows.
	ListCameras(ctx context.Context, schema string) ([]Row, error)
}

// SQLiteRemote reads cameras from tenant databases ATTACHed to a single
// SQLite handle.
type SQLiteRemote struct {
	db    *sql.DB
	table string
}

// NewSQLiteRemote creates a remote that reads table from each attached schema.
func NewSQLiteRemote(db *sql.DB, table string) *SQLiteRemote {
	return &SQLiteRemote{db: db, table: table}
}

// ListSchemas returns attached schema names, excluding main and temp.
func (r *SQLiteRemote) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM pragma_database_list ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning schema name: %w", err)
		}
		if name == database.MainSchema || name == database.TempSchema {
			continue
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schemas: %w", err)
	}
	return schemas, nil
}

// ListCameras reads every camera row of schema.
func (r *SQLiteRemote) ListCameras(ctx context.Context, schema string) ([]Row, error) {
	if !database.ValidIdentifier(r.table) {
		return nil, fmt.Errorf("%w: table %q", database.ErrInvalidIdentifier, r.table)
	}
	exists, err := database.TableExists(ctx, r.db, schema, r.table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	query := `SELECT external_id, name, rtsp_url, status, location, camera_settings,
			ssh_host, ssh_port, ssh_user
		FROM ` + schema + `.` + r.table + ` ORDER BY name` //nolint:gosec // identifiers validated above
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s cameras: %w", schema, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row                                        Row
			name, rtsp, status, loc, settings, h, user sql.NullString
			port                                       sql.NullInt64
		)
		if err := rows.Scan(&row.ExternalID, &name, &rtsp, &status, &loc, &settings, &h, &port, &user); err != nil {
			return nil, fmt.Errorf("scanning %s camera: %w", schema, err)
		}
		row.Schema = schema
		row.Name = name.String
		row.RTSPURL = rtsp.String
		row.Status = status.String
		row.Location = loc.String
		row.CameraSettings = settings.String
		row.SSHHost = h.String
		row.SSHPort = int(port.Int64)
		row.SSHUser = user.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s cameras: %w", schema, err)
	}
	return out, nil
}

// ToDevice maps an upstream row into a read-only external device.
func (row Row) ToDevice() Device {
	d := Device{
		ID:         row.ExternalID,
		Name:       row.Name,
		RTSPURL:    row.RTSPURL,
		Status:     Status(row.Status),
		Location:   row.Location,
		IsExternal: true,
		ReadOnly:   true,
		Schema:     row.Schema,
		Target:     SSHTarget(row.SSHHost, row.SSHPort, row.SSHUser),
	}
	if d.Status == "" {
		d.Status = StatusOffline
	}
	if row.CameraSettings != "" && json.Valid([]byte(row.CameraSettings)) {
		d.CameraSettings = []byte(row.CameraSettings)
	}
	return d
}
