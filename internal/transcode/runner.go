package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"transcode-service/internal/logging"
	"transcode-service/internal/metrics"
)

var runnerLogger = logging.For("transcode.runner")

// ExitError reports a subprocess that exited non-zero, with its captured
// output attached for diagnosis.
type ExitError struct {
	Cmd    string
	Code   int
	Stdout string
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Cmd, e.Code, firstLine(e.Stderr))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}

// Runner executes external transcoding tools one at a time, capturing their
// output fully so ffmpeg cannot pollute the service log. The live process
// handle is tracked so the owning worker can kill it on shutdown.
type Runner struct {
	mu   sync.Mutex
	proc *os.Process
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes name with args and waits for completion. It returns the
// captured stderr, which is where ffmpeg writes its log. A non-zero exit
// yields an *ExitError.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	runnerLogger.Info("Running command > %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", name, err)
	}
	metrics.SubprocessesStarted.WithLabelValues(filepath.Base(name)).Inc()

	r.mu.Lock()
	r.proc = cmd.Process
	r.mu.Unlock()

	err := cmd.Wait()

	r.mu.Lock()
	r.proc = nil
	r.mu.Unlock()

	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return stderr.String(), &ExitError{
				Cmd:    name,
				Code:   ee.ExitCode(),
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}
		}
		return stderr.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stderr.String(), nil
}

// RunTolerant is Run for probing commands that exit non-zero by design,
// such as `ffmpeg -i file` without an output. The captured stderr is
// returned either way; only failures to execute at all are errors.
func (r *Runner) RunTolerant(ctx context.Context, name string, args ...string) (string, error) {
	out, err := r.Run(ctx, name, args...)
	var ee *ExitError
	if errors.As(err, &ee) {
		return out, nil
	}
	return out, err
}

// runCaptureStdout executes a command and returns its captured stdout,
// for tools like ffprobe that report on stdout instead of stderr.
func (r *Runner) runCaptureStdout(ctx context.Context, name string, args ...string) (string, error) {
	runnerLogger.Debug("Running command > %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", name, err)
	}
	metrics.SubprocessesStarted.WithLabelValues(filepath.Base(name)).Inc()

	r.mu.Lock()
	r.proc = cmd.Process
	r.mu.Unlock()

	err := cmd.Wait()

	r.mu.Lock()
	r.proc = nil
	r.mu.Unlock()

	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return stdout.String(), &ExitError{
				Cmd:    name,
				Code:   ee.ExitCode(),
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}
		}
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

// Kill terminates the live subprocess, if any. Safe to call from another
// goroutine while Run is in flight.
func (r *Runner) Kill() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc != nil {
		runnerLogger.Info("Killing subprocess pid %d", r.proc.Pid)
		if err := r.proc.Kill(); err != nil {
			runnerLogger.Warn("failed to kill subprocess: %v", err)
		}
	}
}
