package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// State is the lifecycle state of a Task.
type State int32

// Task states. Running is the only non-terminal state.
const (
	StateRunning State = iota
	StateCompleted
	StateTimedOut
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Errors reported in Result.Err.
var (
	// ErrDeadlineExceeded is set when the deadline fired before the process exited.
	ErrDeadlineExceeded = errors.New("process: deadline exceeded")

	// ErrCancelled is set when the caller's context ended first.
	ErrCancelled = errors.New("process: cancelled")
)

const (
	// outputBufferSize caps the stderr tail kept for error reports.
	outputBufferSize = 4096

	// reapTimeout bounds the wait for a killed process to be reaped.
	reapTimeout = 5 * time.Second
)

// Config describes one child process run.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	WorkDir string

	// Deadline bounds the whole run. Zero means no deadline.
	Deadline time.Duration
}

// Result is written exactly once per Task.
type Result struct {
	State    State
	Err      error
	Stderr   string
	Duration time.Duration
}

// Logger defines the logging interface for tasks.
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

// Task is a one-shot child process racing a deadline.
//
// The process exit, the deadline and the caller's context all try to
// finish the task; a compare-and-swap on the state lets exactly one of them
// write the result. A late exit after a timeout is discarded.
type Task struct {
	cfg    Config
	logger Logger

	cmd    *exec.Cmd
	stderr *tailBuffer
	start  time.Time

	state  atomic.Int32
	result Result
	done   chan struct{}
}

// Start launches cfg.Binary in its own process group and begins watching
// it. The returned Task is Running until Wait observes a terminal state.
func Start(ctx context.Context, cfg Config, logger Logger) (*Task, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.Binary == "" {
		return nil, fmt.Errorf("starting %s: no binary", cfg.Name)
	}

	cmd := exec.Command(cfg.Binary, cfg.Args...) //nolint:gosec // binary comes from operator config

	// A new process group lets a kill reach any children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if cfg.Env != nil {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}

	t := &Task{
		cfg:    cfg,
		logger: logger,
		cmd:    cmd,
		stderr: &tailBuffer{limit: outputBufferSize},
		done:   make(chan struct{}),
	}
	cmd.Stderr = t.stderr
	t.state.Store(int32(StateRunning))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Name, err)
	}
	t.start = time.Now()
	logger.Debug("process started", "name", cfg.Name, "pid", cmd.Process.Pid)

	go t.watch(ctx)
	return t, nil
}

// Run starts a task and waits for its result.
func Run(ctx context.Context, cfg Config, logger Logger) Result {
	t, err := Start(ctx, cfg, logger)
	if err != nil {
		return Result{State: StateFailed, Err: err}
	}
	return t.Wait()
}

// Wait blocks until the task reaches a terminal state and returns its result.
func (t *Task) Wait() Result {
	<-t.done
	return t.result
}

// Done is closed once the result has been written.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// State returns the current state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// PID returns the child's process ID.
func (t *Task) PID() int {
	return t.cmd.Process.Pid
}

func (t *Task) watch(ctx context.Context) {
	exitCh := make(chan error, 1)
	go func() {
		exitCh <- t.cmd.Wait()
	}()

	var deadline <-chan time.Time
	if t.cfg.Deadline > 0 {
		timer := time.NewTimer(t.cfg.Deadline)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-exitCh:
		if err != nil {
			t.finish(StateFailed, fmt.Errorf("%s exited: %w", t.cfg.Name, err))
			return
		}
		t.finish(StateCompleted, nil)

	case <-deadline:
		t.abort(exitCh, StateTimedOut, ErrDeadlineExceeded)

	case <-ctx.Done():
		t.abort(exitCh, StateFailed, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
	}
}

// abort claims the result slot, kills the process group and waits for the
// child to be reaped before publishing the result.
func (t *Task) abort(exitCh <-chan error, state State, err error) {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(state)) {
		return
	}

	pid := t.cmd.Process.Pid
	if killErr := syscall.Kill(-pid, syscall.SIGKILL); killErr != nil {
		t.logger.Warn("killing process group failed", "name", t.cfg.Name, "pid", pid, "error", killErr)
		_ = t.cmd.Process.Kill() //nolint:errcheck // best effort after group kill failed
	}

	select {
	case <-exitCh:
	case <-time.After(reapTimeout):
		t.logger.Error("process did not exit after kill", "name", t.cfg.Name, "pid", pid)
	}

	t.publish(state, err)
}

// finish claims the result slot for a natural exit.
func (t *Task) finish(state State, err error) {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(state)) {
		t.logger.Debug("late process exit ignored", "name", t.cfg.Name, "state", t.State().String())
		return
	}
	t.publish(state, err)
}

func (t *Task) publish(state State, err error) {
	t.result = Result{
		State:    state,
		Err:      err,
		Stderr:   strings.TrimSpace(t.stderr.String()),
		Duration: time.Since(t.start),
	}
	t.logger.Debug("process finished",
		"name", t.cfg.Name,
		"state", state.String(),
		"duration", t.result.Duration.String(),
	)
	close(t.done)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
