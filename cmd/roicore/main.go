// ROI Core - AI monitoring rule service for CCTV cameras
//
// This is the main entry point for the ROI core. It serves the camera
// directory, the per-device region/rule configuration and live snapshots
// over a JWT-protected REST API, and tells devices to reload after their
// rules change.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/nerrad567/gray-logic-roi/migrations"

	"github.com/nerrad567/gray-logic-roi/internal/actuation"
	"github.com/nerrad567/gray-logic-roi/internal/api"
	"github.com/nerrad567/gray-logic-roi/internal/audit"
	"github.com/nerrad567/gray-logic-roi/internal/device"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/storage"
	"github.com/nerrad567/gray-logic-roi/internal/roi"
	"github.com/nerrad567/gray-logic-roi/internal/snapshot"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ROI core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Secrets may live in a local .env; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not read .env", "error", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"upstream_schemas", len(cfg.Upstream.Schemas),
	)

	// Open database with every upstream tenant schema attached
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
		Attach:      cfg.Upstream.Schemas,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path, "attached", db.Attached())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	health := map[string]api.HealthChecker{"database": db}

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		health["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Connect to object storage (optional)
	var archive storage.SnapshotStore
	store, err := storage.Connect(ctx, cfg.MinIO)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		log.Info("snapshot archive disabled")
	case err != nil:
		return fmt.Errorf("connecting to object storage: %w", err)
	default:
		archive = store
		health["storage"] = store
		log.Info("snapshot archive ready", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
	}

	// Domain services
	directory := device.NewDirectory(
		device.NewSQLiteRemote(db.DB, cfg.Upstream.CameraTable),
		device.NewSQLiteRepository(db.DB),
		cfg.Upstream,
	)
	directory.SetLogger(log.Component("directory"))

	dispatcher := actuation.NewDispatcher(cfg, influxClient)
	dispatcher.SetLogger(log.Component("actuation"))

	auditRepo := audit.NewSQLiteRepository(db.DB)

	rules := roi.NewService(roi.NewSQLiteStore(db.DB, cfg.Upstream.ConfigTable), dispatcher, auditRepo)
	rules.SetLogger(log.Component("rules"))

	capturer := snapshot.NewCapturer(cfg.Snapshot, influxClient)
	capturer.SetLogger(log.Component("snapshot"))

	// Verify all connections are healthy before serving
	for name, hc := range health {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("health check failed: %s: %w", name, err)
		}
	}
	log.Info("all health checks passed")

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Devices:  directory,
		Rules:    rules,
		Capturer: capturer,
		Archive:  archive,
		Audit:    auditRepo,
		Health:   health,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB (if enabled), database.
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ROICORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ROICORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
