package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/audit"
	"github.com/nerrad567/gray-logic-roi/internal/device"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/storage"
	"github.com/nerrad567/gray-logic-roi/internal/roi"
	"github.com/nerrad567/gray-logic-roi/internal/schedule"
	"github.com/nerrad567/gray-logic-roi/internal/snapshot"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DeviceDirectory lists and manages the cameras a tenant can see.
type DeviceDirectory interface {
	FindAll(ctx context.Context, tenant string) ([]device.Device, error)
	FindByID(ctx context.Context, tenant, id string) (*device.Device, error)
	Create(ctx context.Context, dev *device.Device) error
	Update(ctx context.Context, dev *device.Device) error
	Delete(ctx context.Context, tenant, id string) error
}

// RuleService reads and saves a device's ROI rules.
type RuleService interface {
	Get(ctx context.Context, dev *device.Device) (*roi.RegionAIConfig, error)
	Save(ctx context.Context, req roi.SaveRequest) (*roi.SaveResult, error)
	NextSlot(ctx context.Context, dev *device.Device, roiID string, exclude int) (schedule.TimeRange, error)
}

// FrameCapturer grabs a live frame from a device stream.
type FrameCapturer interface {
	CaptureDevice(ctx context.Context, deviceID, rtspURL string) (*snapshot.Frame, error)
}

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Devices  DeviceDirectory
	Rules    RuleService
	Capturer FrameCapturer         // optional: snapshot endpoint returns 503 without it
	Archive  storage.SnapshotStore // optional: enables ?archive=true
	Audit    audit.Repository      // optional: enables /audit and device CRUD audit entries
	Health   map[string]HealthChecker
	Version  string
}

// Server is the HTTP API server for the ROI core.
type Server struct {
	cfg       config.APIConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	devices   DeviceDirectory
	rules     RuleService
	capturer  FrameCapturer
	archive   storage.SnapshotStore
	auditRepo audit.Repository
	auditCh   chan *audit.AuditLog
	health    map[string]HealthChecker
	version   string
	startTime time.Time
	server    *http.Server
	cancel    context.CancelFunc // stops the audit writer on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device directory is required")
	}
	if deps.Rules == nil {
		return nil, fmt.Errorf("rule service is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	s := &Server{
		cfg:       deps.Config,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		devices:   deps.Devices,
		rules:     deps.Rules,
		capturer:  deps.Capturer,
		archive:   deps.Archive,
		auditRepo: deps.Audit,
		health:    deps.Health,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		go s.drainAuditLog(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	// Stop the audit writer after in-flight handlers have enqueued.
	if s.cancel != nil {
		s.cancel()
	}
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
