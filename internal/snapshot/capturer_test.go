package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
)

// fakeFFmpeg writes an executable script standing in for ffmpeg. The
// script body sees the output path as $out.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor a; do out=$a; done\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { //nolint:gosec // test executable
		t.Fatalf("writing fake ffmpeg: %v", err)
	}
	return path
}

func newTestCapturer(t *testing.T, binary string) (*Capturer, string) {
	t.Helper()
	tmp := t.TempDir()
	c := NewCapturer(config.SnapshotConfig{
		FFmpegBinary: binary,
		Deadline:     5,
		TempDir:      tmp,
	}, nil)
	return c, tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d entries, want 0 (first: %s)", len(entries), entries[0].Name())
	}
}

// ============================================================================
// Capture outcomes
// ============================================================================

func TestCapture_Success(t *testing.T) {
	c, tmp := newTestCapturer(t, fakeFFmpeg(t, `printf 'JPEGDATA' > "$out"`))

	frame, err := c.Capture(context.Background(), "rtsp://10.0.0.5/stream1")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if string(frame.Data) != "JPEGDATA" {
		t.Errorf("Data = %q, want %q", frame.Data, "JPEGDATA")
	}
	if frame.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", frame.ContentType)
	}
	if frame.CapturedAt.IsZero() {
		t.Error("CapturedAt is zero")
	}
	assertEmptyDir(t, tmp)
}

func TestCapture_EmptyFile(t *testing.T) {
	c, tmp := newTestCapturer(t, fakeFFmpeg(t, `: > "$out"`))

	_, err := c.Capture(context.Background(), "rtsp://10.0.0.5/stream1")
	if !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("Capture() error = %v, want ErrEmptyCapture", err)
	}
	assertEmptyDir(t, tmp)
}

func TestCapture_MissingFile(t *testing.T) {
	c, tmp := newTestCapturer(t, fakeFFmpeg(t, `exit 0`))

	_, err := c.Capture(context.Background(), "rtsp://10.0.0.5/stream1")
	if !errors.Is(err, ErrTempFileMissing) {
		t.Fatalf("Capture() error = %v, want ErrTempFileMissing", err)
	}
	assertEmptyDir(t, tmp)
}

func TestCapture_ProcessFailure(t *testing.T) {
	c, tmp := newTestCapturer(t, fakeFFmpeg(t, `echo "connection refused" >&2; exit 1`))

	_, err := c.Capture(context.Background(), "rtsp://10.0.0.5/stream1")
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("Capture() error = %v, want ErrCaptureFailed", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error %q does not carry stderr", err)
	}
	assertEmptyDir(t, tmp)
}

func TestCapture_Timeout(t *testing.T) {
	// Writes a partial frame, then hangs like a stalled stream.
	c, tmp := newTestCapturer(t, fakeFFmpeg(t, `printf 'PART' > "$out"; sleep 30`))

	start := time.Now()
	_, err := c.CaptureWithDeadline(context.Background(), "rtsp://10.0.0.5/stream1", 300*time.Millisecond)
	if !errors.Is(err, ErrCaptureTimeout) {
		t.Fatalf("CaptureWithDeadline() error = %v, want ErrCaptureTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("timeout took %v, process was not killed", elapsed)
	}
	assertEmptyDir(t, tmp)

	// The grabber is dead; nothing may recreate the file later.
	time.Sleep(200 * time.Millisecond)
	assertEmptyDir(t, tmp)
}

func TestCapture_MissingURL(t *testing.T) {
	c, _ := newTestCapturer(t, "/nonexistent/ffmpeg")

	if _, err := c.Capture(context.Background(), ""); !errors.Is(err, ErrMissingURL) {
		t.Errorf("Capture(\"\") error = %v, want ErrMissingURL", err)
	}
}

func TestCapture_BinaryNotFound(t *testing.T) {
	c, tmp := newTestCapturer(t, "/nonexistent/ffmpeg")

	_, err := c.CaptureDevice(context.Background(), "cam-1", "rtsp://10.0.0.5/stream1")
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("CaptureDevice() error = %v, want ErrCaptureFailed", err)
	}
	assertEmptyDir(t, tmp)
}

// ============================================================================
// Command line
// ============================================================================

func TestArgs(t *testing.T) {
	c := NewCapturer(config.SnapshotConfig{
		FFmpegBinary:    "ffmpeg",
		AnalyzeDuration: 1000000,
		ProbeSize:       500000,
		Scale:           "1280:-1",
	}, nil)

	args := c.args("rtsp://cam/1", "/tmp/out.jpg")

	pairs := map[string]string{
		"-rtsp_transport":  "tcp",
		"-analyzeduration": "1000000",
		"-probesize":       "500000",
		"-i":               "rtsp://cam/1",
		"-frames:v":        "1",
		"-vf":              "scale=1280:-1",
	}
	for flag, want := range pairs {
		i := slices.Index(args, flag)
		if i < 0 || i+1 >= len(args) {
			t.Errorf("args missing %s: %v", flag, args)
			continue
		}
		if args[i+1] != want {
			t.Errorf("%s = %q, want %q", flag, args[i+1], want)
		}
	}
	if last := args[len(args)-1]; last != "/tmp/out.jpg" {
		t.Errorf("last arg = %q, want output path", last)
	}
	// Input options must precede -i.
	if slices.Index(args, "-rtsp_transport") > slices.Index(args, "-i") {
		t.Error("-rtsp_transport placed after -i")
	}
}

func TestArgs_OmitsUnsetTuning(t *testing.T) {
	c := NewCapturer(config.SnapshotConfig{FFmpegBinary: "ffmpeg"}, nil)

	args := c.args("rtsp://cam/1", "/tmp/out.jpg")
	for _, flag := range []string{"-analyzeduration", "-probesize", "-vf"} {
		if slices.Contains(args, flag) {
			t.Errorf("args contain %s with zero config: %v", flag, args)
		}
	}
}

func TestTempPath_Unique(t *testing.T) {
	c := NewCapturer(config.SnapshotConfig{TempDir: "/var/tmp"}, nil)
	now := time.Now()

	a, b := c.tempPath(now), c.tempPath(now)
	if a == b {
		t.Errorf("tempPath() returned %q twice", a)
	}
	if filepath.Dir(a) != "/var/tmp" {
		t.Errorf("tempPath() dir = %q, want /var/tmp", filepath.Dir(a))
	}
}
