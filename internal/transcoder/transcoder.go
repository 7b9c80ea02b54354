package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"dts-converter/internal/logging"
	"dts-converter/internal/metrics"
)

// maxStderrTail bounds the stderr excerpt kept for diagnostics.
const maxStderrTail = 2048

// Transcoder runs ffmpeg encodes and tracks the running processes so they
// can be killed on shutdown.
type Transcoder struct {
	ffmpegPath string
	timeout    time.Duration
	processes  map[string]*exec.Cmd
	processMu  sync.Mutex
}

// Result is the outcome of one encode.
type Result struct {
	// Stderr is the tail of ffmpeg's standard error.
	Stderr   string
	ExitCode int
	TimedOut bool
	// Err is nil when ffmpeg exited 0.
	Err error
}

// Success reports whether ffmpeg exited 0.
func (r Result) Success() bool {
	return r.Err == nil
}

// Diagnostic returns a short human-readable reason for a failed encode.
func (r Result) Diagnostic() string {
	switch {
	case r.Err == nil:
		return ""
	case r.TimedOut:
		return "encode timed out"
	case r.Stderr != "":
		return lastLine(r.Stderr)
	default:
		return r.Err.Error()
	}
}

// New creates a new Transcoder. A zero timeout disables the encode deadline.
func New(ffmpegPath string, timeout time.Duration) *Transcoder {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
		processes:  make(map[string]*exec.Cmd),
	}
}

// Encode runs ffmpeg for plan and waits for it to exit. If ctx is cancelled
// the process is killed and Err wraps ctx.Err().
func (t *Transcoder) Encode(ctx context.Context, plan Plan) Result {
	encodeCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		encodeCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := plan.Args()
	cmd := exec.CommandContext(encodeCtx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Running: %s %s", t.ffmpegPath, strings.Join(args, " "))

	start := time.Now()
	metrics.EncodesInProgress.Inc()
	defer metrics.EncodesInProgress.Dec()

	if err := cmd.Start(); err != nil {
		metrics.ToolInvocationsTotal.WithLabelValues("ffmpeg", "error").Inc()
		return Result{ExitCode: -1, Err: fmt.Errorf("start ffmpeg: %w", err)}
	}

	t.processMu.Lock()
	t.processes[plan.Input] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, plan.Input)
		t.processMu.Unlock()
	}()

	err := cmd.Wait()
	metrics.ToolDuration.WithLabelValues("ffmpeg").Observe(time.Since(start).Seconds())

	result := Result{Stderr: tail(stderr.String(), maxStderrTail)}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		metrics.ToolInvocationsTotal.WithLabelValues("ffmpeg", "success").Inc()
		return result
	}

	metrics.ToolInvocationsTotal.WithLabelValues("ffmpeg", "error").Inc()
	switch {
	case ctx.Err() != nil:
		result.Err = fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
	case errors.Is(encodeCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.Err = fmt.Errorf("ffmpeg exceeded %s: %w", t.timeout, context.DeadlineExceeded)
	default:
		result.Err = fmt.Errorf("ffmpeg exited with code %d: %w", result.ExitCode, err)
	}
	if result.Stderr != "" {
		logging.Error("FFmpeg stderr for %s: %s", plan.Input, result.Stderr)
	}
	return result
}

// Active returns the number of running ffmpeg processes.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Cleanup stops all active encoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing encoding process for: %s", path)
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logging.Warn("failed to kill encoding process for %s: %v", path, err)
			}
		}
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
