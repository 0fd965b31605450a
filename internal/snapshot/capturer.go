package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-roi/internal/process"
)

// ContentType is the MIME type of every captured frame.
const ContentType = "image/jpeg"

// Logger defines the logging interface used by the Capturer.
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

// Frame is one captured still.
type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
}

// Capturer grabs single frames from RTSP streams with an external ffmpeg.
//
// Every frame goes through a private temp file rather than a pipe so a
// caller never sees a partially flushed image.
type Capturer struct {
	cfg    config.SnapshotConfig
	influx *influxdb.Client
	logger Logger
}

// NewCapturer creates a capturer. influx may be nil.
func NewCapturer(cfg config.SnapshotConfig, influx *influxdb.Client) *Capturer {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Capturer{cfg: cfg, influx: influx, logger: noopLogger{}}
}

// SetLogger sets the logger for the capturer.
func (c *Capturer) SetLogger(logger Logger) {
	c.logger = logger
}

// Capture grabs one frame from rtspURL using the configured deadline.
func (c *Capturer) Capture(ctx context.Context, rtspURL string) (*Frame, error) {
	return c.capture(ctx, "", rtspURL, c.cfg.DeadlineDuration())
}

// CaptureDevice is Capture with the frame attributed to deviceID in
// telemetry.
func (c *Capturer) CaptureDevice(ctx context.Context, deviceID, rtspURL string) (*Frame, error) {
	return c.capture(ctx, deviceID, rtspURL, c.cfg.DeadlineDuration())
}

// CaptureWithDeadline grabs one frame with an explicit deadline instead of
// the configured one.
func (c *Capturer) CaptureWithDeadline(ctx context.Context, rtspURL string, deadline time.Duration) (*Frame, error) {
	return c.capture(ctx, "", rtspURL, deadline)
}

// capture kills the grabber if it is still running when deadline elapses.
// The temp file is removed exactly once on every path.
func (c *Capturer) capture(ctx context.Context, deviceID, rtspURL string, deadline time.Duration) (*Frame, error) {
	if rtspURL == "" {
		return nil, ErrMissingURL
	}

	start := time.Now()
	path := c.tempPath(start)
	cleanup := c.cleanupOnce(path)
	defer cleanup()

	res := process.Run(ctx, process.Config{
		Name:     "ffmpeg",
		Binary:   c.cfg.FFmpegBinary,
		Args:     c.args(rtspURL, path),
		Deadline: deadline,
	}, c.logger)

	frame, outcome, err := c.collect(res, path)
	c.record(deviceID, outcome, time.Since(start), frame)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// collect turns a finished process into a frame or a capture error.
func (c *Capturer) collect(res process.Result, path string) (*Frame, string, error) {
	switch res.State {
	case process.StateTimedOut:
		return nil, metrics.OutcomeTimeout, ErrCaptureTimeout
	case process.StateFailed:
		if res.Stderr != "" {
			return nil, metrics.OutcomeError, fmt.Errorf("%w: %w: %s", ErrCaptureFailed, res.Err, res.Stderr)
		}
		return nil, metrics.OutcomeError, fmt.Errorf("%w: %w", ErrCaptureFailed, res.Err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, metrics.OutcomeMissing, fmt.Errorf("%w: %w", ErrTempFileMissing, err)
	}
	if info.Size() == 0 {
		return nil, metrics.OutcomeEmpty, ErrEmptyCapture
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is generated by tempPath
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("%w: reading frame: %w", ErrCaptureFailed, err)
	}
	return &Frame{Data: data, ContentType: ContentType, CapturedAt: time.Now().UTC()}, metrics.OutcomeOK, nil
}

// args builds the ffmpeg command line: TCP transport, bounded stream
// analysis, exactly one scaled frame written to path.
func (c *Capturer) args(rtspURL, path string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-rtsp_transport", "tcp",
	}
	if c.cfg.AnalyzeDuration > 0 {
		args = append(args, "-analyzeduration", strconv.Itoa(c.cfg.AnalyzeDuration))
	}
	if c.cfg.ProbeSize > 0 {
		args = append(args, "-probesize", strconv.Itoa(c.cfg.ProbeSize))
	}
	args = append(args, "-i", rtspURL, "-frames:v", "1")
	if c.cfg.Scale != "" {
		args = append(args, "-vf", "scale="+c.cfg.Scale)
	}
	return append(args, "-y", path)
}

// tempPath returns a collision-free output path for one capture.
func (c *Capturer) tempPath(now time.Time) string {
	name := fmt.Sprintf("snapshot_%d_%s.jpg", now.UnixNano(), uuid.NewString()[:8])
	return filepath.Join(c.cfg.TempDir, name)
}

// cleanupOnce returns a func that removes path the first time it is called.
// A file that was never created is not an error.
func (c *Capturer) cleanupOnce(path string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				c.logger.Warn("removing snapshot temp file failed", "path", path, "error", err)
			}
		})
	}
}

func (c *Capturer) record(deviceID, outcome string, d time.Duration, frame *Frame) {
	metrics.RecordSnapshotCapture(outcome, d)

	size := 0
	if frame != nil {
		size = len(frame.Data)
	}
	c.influx.WriteSnapshotCapture(deviceID, outcome, d, size)

	if outcome != metrics.OutcomeOK {
		c.logger.Warn("snapshot capture failed", "device_id", deviceID, "outcome", outcome, "duration", d.String())
	}
}
