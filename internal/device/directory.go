package device

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/metrics"
)

// Logger defines the logging interface used by the Directory.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// breakerName labels the upstream breaker in logs and metrics.
const breakerName = "upstream-cameras"

// cachedRows is the last successful upstream scan.
type cachedRows struct {
	rows      []Row
	fetchedAt time.Time
}

// Directory lists external and locally owned devices together.
//
// External rows are cached process-wide for the configured TTL; the cache
// is not keyed by tenant because one scan covers every attached schema.
// Concurrent misses share one scan. A circuit breaker guards the scan; while
// it is open the last good rows are served, or none if there are none.
//
// All public methods are safe for concurrent use.
type Directory struct {
	remote       Remote
	local        Repository
	ttl          time.Duration
	queryTimeout time.Duration

	cache   atomic.Pointer[cachedRows]
	flight  singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]Row]

	now    func() time.Time
	logger Logger
}

// NewDirectory creates a directory over an upstream remote and the local repository.
func NewDirectory(remote Remote, local Repository, cfg config.UpstreamConfig) *Directory {
	d := &Directory{
		remote:       remote,
		local:        local,
		ttl:          cfg.CacheTTLDuration(),
		queryTimeout: time.Duration(cfg.QueryTimeout) * time.Second,
		now:          time.Now,
		logger:       noopLogger{},
	}
	if d.queryTimeout <= 0 {
		d.queryTimeout = 10 * time.Second
	}

	b := cfg.Breaker
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	d.breaker = gobreaker.NewCircuitBreaker[[]Row](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: b.MaxRequests,
		Interval:    time.Duration(b.Interval) * time.Second,
		Timeout:     time.Duration(b.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= b.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.logger.Warn("upstream circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
	return d
}

// SetLogger sets the logger for the directory.
func (d *Directory) SetLogger(logger Logger) {
	d.logger = logger
}

// SetClock replaces the time source used for cache expiry.
func (d *Directory) SetClock(now func() time.Time) {
	d.now = now
}

// Invalidate drops the cached external rows so the next call rescans.
func (d *Directory) Invalidate() {
	d.cache.Store(nil)
}

// FindAll returns external devices followed by the tenant's local devices.
// A local device whose ID matches an external one is dropped.
func (d *Directory) FindAll(ctx context.Context, tenant string) ([]Device, error) {
	rows := d.externalRows(ctx)

	locals, err := d.local.List(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("listing local devices: %w", err)
	}

	out := make([]Device, 0, len(rows)+len(locals))
	seen := make(map[string]bool, cap(out))
	for _, row := range rows {
		dev := row.ToDevice()
		if seen[dev.ID] {
			continue
		}
		seen[dev.ID] = true
		out = append(out, dev)
	}
	for _, dev := range locals {
		if seen[dev.ID] {
			continue
		}
		seen[dev.ID] = true
		out = append(out, dev)
	}
	return out, nil
}

// FindByID looks a device up upstream first, then locally.
// Returns ErrDeviceNotFound when neither has it.
func (d *Directory) FindByID(ctx context.Context, tenant, id string) (*Device, error) {
	if dev, ok := d.findExternal(ctx, id); ok {
		return dev, nil
	}
	return d.local.GetByID(ctx, tenant, id)
}

// Create stores a new local device, assigning an ID when none is given.
// An ID already used by an external device is rejected.
func (d *Directory) Create(ctx context.Context, dev *Device) error {
	if err := ValidateDevice(dev); err != nil {
		return err
	}
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	if _, ok := d.findExternal(ctx, dev.ID); ok {
		return ErrDeviceExists
	}
	dev.IsExternal = false
	dev.ReadOnly = false
	dev.Schema = ""
	return d.local.Create(ctx, dev)
}

// Update modifies a local device. Returns ErrExternalDeviceReadOnly for an
// upstream device and ErrDeviceNotFound for an unknown ID.
func (d *Directory) Update(ctx context.Context, dev *Device) error {
	if _, err := d.local.GetByID(ctx, dev.Tenant, dev.ID); err != nil {
		return d.classifyMissing(ctx, dev.ID, err)
	}
	if err := ValidateDevice(dev); err != nil {
		return err
	}
	return d.local.Update(ctx, dev)
}

// Delete removes a local device with the same error contract as Update.
func (d *Directory) Delete(ctx context.Context, tenant, id string) error {
	if _, err := d.local.GetByID(ctx, tenant, id); err != nil {
		return d.classifyMissing(ctx, id, err)
	}
	return d.local.Delete(ctx, tenant, id)
}

// classifyMissing turns a local not-found into ErrExternalDeviceReadOnly
// when the ID belongs to an upstream device.
func (d *Directory) classifyMissing(ctx context.Context, id string, err error) error {
	if !errors.Is(err, ErrDeviceNotFound) {
		return err
	}
	if _, ok := d.findExternal(ctx, id); ok {
		return ErrExternalDeviceReadOnly
	}
	return err
}

func (d *Directory) findExternal(ctx context.Context, id string) (*Device, bool) {
	for _, row := range d.externalRows(ctx) {
		if row.ExternalID == id {
			dev := row.ToDevice()
			return &dev, true
		}
	}
	return nil, false
}

// externalRows returns cached rows while fresh and rescans otherwise.
// It never fails; upstream trouble degrades to stale or empty rows.
func (d *Directory) externalRows(ctx context.Context) []Row {
	if c := d.cache.Load(); c != nil && d.now().Sub(c.fetchedAt) < d.ttl {
		metrics.RecordCacheLookup(metrics.CacheHit)
		return c.rows
	}
	metrics.RecordCacheLookup(metrics.CacheMiss)

	// The scan outlives any single caller; it is bounded by queryTimeout instead.
	v, _, _ := d.flight.Do("external", func() (any, error) {
		scanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.queryTimeout)
		defer cancel()
		return d.refresh(scanCtx), nil
	})
	rows, _ := v.([]Row) //nolint:errcheck // refresh always returns []Row
	return rows
}

func (d *Directory) refresh(ctx context.Context) []Row {
	start := time.Now()
	rows, err := d.breaker.Execute(func() ([]Row, error) {
		return d.scan(ctx)
	})
	metrics.RecordDirectoryRefresh(time.Since(start))

	if err != nil {
		if stale := d.cache.Load(); stale != nil {
			metrics.RecordCacheLookup(metrics.CacheStale)
			d.logger.Warn("upstream refresh failed, serving stale devices",
				"error", err, "age", d.now().Sub(stale.fetchedAt).String())
			return stale.rows
		}
		d.logger.Warn("upstream refresh failed, no external devices available", "error", err)
		return nil
	}

	d.cache.Store(&cachedRows{rows: rows, fetchedAt: d.now()})
	d.logger.Debug("upstream devices refreshed", "count", len(rows))
	return rows
}

// scan reads every schema. A schema that fails is logged and skipped; the
// scan only fails when schemas cannot be listed or every schema failed.
func (d *Directory) scan(ctx context.Context) ([]Row, error) {
	schemas, err := d.remote.ListSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing upstream schemas: %w", err)
	}

	var (
		all    []Row
		failed int
	)
	for _, schema := range schemas {
		rows, err := d.remote.ListCameras(ctx, schema)
		if err != nil {
			failed++
			metrics.RecordSchemaFailure(schema)
			d.logger.Warn("skipping upstream schema",
				"schema", schema, "error", fmt.Errorf("%w: %w", ErrUpstreamSchemaQueryFailed, err))
			continue
		}
		all = append(all, rows...)
	}

	if failed > 0 && failed == len(schemas) {
		return nil, fmt.Errorf("%w: all %d schemas failed", ErrUpstreamSchemaQueryFailed, failed)
	}
	if all == nil {
		all = []Row{}
	}
	return all, nil
}
