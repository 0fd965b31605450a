package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines persistence for locally owned devices.
// Every call is scoped to a tenant; a device of another tenant is reported
// as not found.
type Repository interface {
	// GetByID retrieves a device by its identifier.
	// Returns ErrDeviceNotFound if the device does not exist for tenant.
	GetByID(ctx context.Context, tenant, id string) (*Device, error)

	// List retrieves all devices of a tenant ordered by name.
	List(ctx context.Context, tenant string) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *Device) error

	// Update modifies an existing device.
	// Returns ErrDeviceNotFound if the device does not exist for its tenant.
	Update(ctx context.Context, device *Device) error

	// Delete removes a device.
	// Returns ErrDeviceNotFound if the device does not exist for tenant.
	Delete(ctx context.Context, tenant, id string) error
}

// SQLiteRepository implements Repository over main.devices.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, tenant, name, rtsp_url, status, location, camera_settings,
	ssh_host, ssh_port, ssh_user, created_at, updated_at`

// GetByID retrieves a device by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, tenant, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM main.devices WHERE id = ? AND tenant = ?`, id, tenant)

	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// List retrieves all devices of a tenant.
func (r *SQLiteRepository) List(ctx context.Context, tenant string) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM main.devices WHERE tenant = ? ORDER BY name`, tenant)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Create inserts a new device. Timestamps are set here.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	host, port, user := sshColumns(d.Target)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO main.devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Tenant, d.Name, d.RTSPURL, string(d.Status), d.Location, settingsColumn(d),
		host, port, user,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Update modifies an existing device. created_at is never changed.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	d.UpdatedAt = time.Now().UTC()

	host, port, user := sshColumns(d.Target)
	result, err := r.db.ExecContext(ctx, `
		UPDATE main.devices SET
			name = ?, rtsp_url = ?, status = ?, location = ?, camera_settings = ?,
			ssh_host = ?, ssh_port = ?, ssh_user = ?, updated_at = ?
		WHERE id = ? AND tenant = ?`,
		d.Name, d.RTSPURL, string(d.Status), d.Location, settingsColumn(d),
		host, port, user, d.UpdatedAt.Format(time.RFC3339),
		d.ID, d.Tenant,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes a device.
func (r *SQLiteRepository) Delete(ctx context.Context, tenant, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM main.devices WHERE id = ? AND tenant = ?`, id, tenant)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*Device, error) {
	var (
		d                   Device
		status              string
		rtsp, loc, settings sql.NullString
		sshHost, sshUser    sql.NullString
		sshPort             sql.NullInt64
		createdAt           string
		updatedAt           string
	)
	if err := s.Scan(&d.ID, &d.Tenant, &d.Name, &rtsp, &status, &loc, &settings,
		&sshHost, &sshPort, &sshUser, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	d.Status = Status(status)
	d.RTSPURL = rtsp.String
	d.Location = loc.String
	if settings.Valid && settings.String != "" {
		d.CameraSettings = []byte(settings.String)
	}
	d.Target = SSHTarget(sshHost.String, int(sshPort.Int64), sshUser.String)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is ours
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is ours
	return &d, nil
}

func sshColumns(t ActuationTarget) (host, port, user any) {
	if t.Kind != TargetSSH || t.SSH == nil {
		return nil, nil, nil
	}
	host = t.SSH.Host
	if t.SSH.Port > 0 {
		port = t.SSH.Port
	}
	if t.SSH.User != "" {
		user = t.SSH.User
	}
	return host, port, user
}

func settingsColumn(d *Device) any {
	if len(d.CameraSettings) == 0 {
		return nil
	}
	return string(d.CameraSettings)
}
