package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func shConfig(script string, deadline time.Duration) Config {
	return Config{
		Name:     "test-proc",
		Binary:   "/bin/sh",
		Args:     []string{"-c", script},
		Deadline: deadline,
	}
}

func TestRun_Completed(t *testing.T) {
	res := Run(context.Background(), shConfig("exit 0", 5*time.Second), nil)

	if res.State != StateCompleted || res.Err != nil {
		t.Errorf("Run() = %v, %v, want completed with no error", res.State, res.Err)
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %v, want positive", res.Duration)
	}
}

func TestRun_FailedCapturesStderr(t *testing.T) {
	res := Run(context.Background(), shConfig("echo 'no such stream' >&2; exit 3", 5*time.Second), nil)

	if res.State != StateFailed {
		t.Fatalf("State = %v, want failed", res.State)
	}
	if res.Err == nil {
		t.Error("Err = nil, want exit error")
	}
	if res.Stderr != "no such stream" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "no such stream")
	}
}

func TestRun_Timeout(t *testing.T) {
	start := time.Now()
	res := Run(context.Background(), shConfig("sleep 30", 200*time.Millisecond), nil)

	if res.State != StateTimedOut {
		t.Fatalf("State = %v, want timed_out", res.State)
	}
	if !errors.Is(res.Err, ErrDeadlineExceeded) {
		t.Errorf("Err = %v, want ErrDeadlineExceeded", res.Err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run() took %v, the process was not killed", elapsed)
	}
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "late")
	// The grandchild would write the marker after the deadline if it survived.
	script := "(sleep 1; touch " + marker + ") & sleep 30"

	res := Run(context.Background(), shConfig(script, 200*time.Millisecond), nil)
	if res.State != StateTimedOut {
		t.Fatalf("State = %v, want timed_out", res.State)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(marker); err == nil {
		t.Error("grandchild survived the kill and wrote its marker")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task, err := Start(ctx, shConfig("sleep 30", 0), nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if task.State() != StateRunning {
		t.Errorf("State() = %v, want running", task.State())
	}

	cancel()
	res := task.Wait()
	if res.State != StateFailed || !errors.Is(res.Err, ErrCancelled) {
		t.Errorf("Wait() = %v, %v, want failed with ErrCancelled", res.State, res.Err)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want to wrap context.Canceled", res.Err)
	}
}

func TestTask_ResultWrittenOnce(t *testing.T) {
	task, err := Start(context.Background(), shConfig("exit 0", time.Second), nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	first := task.Wait()

	// A second finisher must not overwrite the published result.
	task.finish(StateFailed, errors.New("late"))
	if second := task.Wait(); second.State != first.State || second.Err != first.Err {
		t.Errorf("result changed from %v to %v", first.State, second.State)
	}
	select {
	case <-task.Done():
	default:
		t.Error("Done() not closed after Wait")
	}
}

func TestStart_Errors(t *testing.T) {
	if _, err := Start(context.Background(), Config{Name: "empty"}, nil); err == nil {
		t.Error("Start() with no binary error = nil")
	}

	res := Run(context.Background(), Config{Name: "missing", Binary: "/nonexistent/bin"}, nil)
	if res.State != StateFailed || res.Err == nil {
		t.Errorf("Run(missing binary) = %v, %v, want failed", res.State, res.Err)
	}
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{limit: 8}
	b.Write([]byte("0123456789")) //nolint:errcheck
	b.Write([]byte("ab"))         //nolint:errcheck
	if got := b.String(); got != "456789ab" {
		t.Errorf("tail = %q, want %q", got, "456789ab")
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		StateRunning:   "running",
		StateCompleted: "completed",
		StateTimedOut:  "timed_out",
		StateFailed:    "failed",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
	if !strings.HasPrefix(State(42).String(), "state(") {
		t.Error("unknown state should format numerically")
	}
}
