package roi

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/audit"
	"github.com/nerrad567/gray-logic-roi/internal/device"
	"github.com/nerrad567/gray-logic-roi/internal/schedule"
)

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier tells a physical device its rules changed.
type Notifier interface {
	RestartDevice(ctx context.Context, dev *device.Device) error
}

// SaveRequest is one edit of a device's rules.
type SaveRequest struct {
	Tenant string
	Actor  string
	Device *device.Device
	Config RegionAIConfig
}

// SaveResult is returned for every committed save. Warning is set when the
// device could not be notified.
type SaveResult struct {
	Config       RegionAIConfig `json:"config"`
	RowsAffected int64          `json:"rows_affected"`
	Warning      string         `json:"warning,omitempty"`
}

// Service runs the rule write path: normalize, merge against the stored
// baseline, validate, persist, then notify the device.
type Service struct {
	store    Store
	notifier Notifier
	audit    audit.Repository
	now      func() time.Time
	logger   Logger
}

// NewService creates a rule service. notifier and auditRepo may be nil.
func NewService(store Store, notifier Notifier, auditRepo audit.Repository) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		audit:    auditRepo,
		now:      time.Now,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetClock replaces the time source used for rule timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns a device's rules with points normalized where possible.
// Points that cannot be read are left as stored and logged.
func (s *Service) Get(ctx context.Context, dev *device.Device) (*RegionAIConfig, error) {
	cfg, err := s.store.FetchRoiData(ctx, dev.ConfigSchema(), dev.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching rules for %s: %w", dev.ID, err)
	}
	if cfg == nil {
		return &RegionAIConfig{Rule: []Rule{}}, nil
	}

	for i, r := range cfg.Rule {
		n, err := NormalizeRulePoints(r)
		if err != nil {
			s.logger.Warn("stored rule has unreadable points", "device_id", dev.ID, "rule", i, "error", err)
			continue
		}
		cfg.Rule[i] = n
	}
	return cfg, nil
}

// Save persists an edited config. Persistence is committed before the
// device is notified, and a failed notification only produces a warning.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if req.Device == nil {
		return nil, fmt.Errorf("%w: no device", ErrInvalidRule)
	}
	dev := req.Device
	schemaName := dev.ConfigSchema()

	edited, err := NormalizeRegionConfig(req.Config)
	if err != nil {
		return nil, err
	}

	baseline, err := s.store.FetchRoiData(ctx, schemaName, dev.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching baseline for %s: %w", dev.ID, err)
	}

	merged, kept := mergeRules(edited, baseline, MergeOptions{Now: s.now(), Actor: req.Actor})
	if err := validateConfig(merged, kept); err != nil {
		return nil, err
	}

	n, err := s.store.SaveRegionConfig(ctx, schemaName, dev.ID, merged)
	if err != nil {
		return nil, fmt.Errorf("saving rules for %s: %w", dev.ID, err)
	}
	s.logger.Info("rules saved", "device_id", dev.ID, "schema", schemaName, "rules", len(merged.Rule))

	result := &SaveResult{Config: merged, RowsAffected: n}
	s.record(ctx, req, len(merged.Rule))

	if s.notifier != nil {
		if err := s.notifier.RestartDevice(ctx, dev); err != nil {
			s.logger.Warn("device notification failed", "device_id", dev.ID, "error", err)
			result.Warning = fmt.Sprintf("rules saved but device was not notified: %v", err)
		}
	}
	return result, nil
}

// NextSlot returns the next free schedule window for one rule. exclude is
// the index of the schedule being edited, or -1.
func (s *Service) NextSlot(ctx context.Context, dev *device.Device, roiID string, exclude int) (schedule.TimeRange, error) {
	cfg, err := s.Get(ctx, dev)
	if err != nil {
		return schedule.TimeRange{}, err
	}
	rule, _, ok := cfg.FindRule(roiID)
	if !ok {
		return schedule.TimeRange{}, fmt.Errorf("%w: %q", ErrRuleNotFound, roiID)
	}
	return schedule.NextScheduleWindow(rule.Schedule, exclude)
}

func (s *Service) record(ctx context.Context, req SaveRequest, rules int) {
	if s.audit == nil {
		return
	}
	tenant := req.Tenant
	if tenant == "" {
		tenant = req.Device.Tenant
	}
	entry := &audit.AuditLog{
		Tenant:     tenant,
		Action:     audit.ActionSaveRules,
		EntityType: audit.EntityRoiConfig,
		EntityID:   req.Device.ID,
		UserID:     req.Actor,
		Details: map[string]any{
			"rules":  rules,
			"schema": req.Device.ConfigSchema(),
		},
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", "device_id", req.Device.ID, "error", err)
	}
}
