package transcode

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require a POSIX shell")
	}
}

func TestRunCapturesStderr(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner()
	out, err := r.Run(context.Background(), "sh", "-c", "echo to-stderr 1>&2")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !strings.Contains(out, "to-stderr") {
		t.Errorf("stderr not captured, got %q", out)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner()
	_, err := r.Run(context.Background(), "sh", "-c", "echo failing 1>&2; exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("error %v is not an *ExitError", err)
	}
	if ee.Code != 3 {
		t.Errorf("exit code = %d, want 3", ee.Code)
	}
	if !strings.Contains(ee.Stderr, "failing") {
		t.Errorf("ExitError.Stderr = %q, want output captured", ee.Stderr)
	}
}

func TestRunTolerantIgnoresExitCode(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner()
	out, err := r.RunTolerant(context.Background(), "sh", "-c", "echo info 1>&2; exit 1")
	if err != nil {
		t.Fatalf("RunTolerant error: %v", err)
	}
	if !strings.Contains(out, "info") {
		t.Errorf("output not captured, got %q", out)
	}
}

func TestRunMissingCommand(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), "definitely-not-a-real-command-12345")
	if err == nil {
		t.Fatal("expected error for missing command")
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		t.Errorf("missing command should not produce an ExitError, got %+v", ee)
	}
}

func TestKillTerminatesLiveProcess(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner()
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), "sh", "-c", "sleep 30")
		done <- err
	}()

	// Wait for the process handle to be recorded, then kill it.
	for i := 0; ; i++ {
		r.mu.Lock()
		live := r.proc != nil
		r.mu.Unlock()
		if live {
			break
		}
		if i >= 100 {
			t.Fatal("subprocess never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
	r.Kill()

	if err := <-done; err == nil {
		t.Error("expected an error after killing the subprocess")
	}
}

func TestKillIdleIsNoop(t *testing.T) {
	r := NewRunner()
	// Must not panic with no live process.
	r.Kill()
}
