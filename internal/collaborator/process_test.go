package collaborator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"
)

// TestExecuteCommand_BasicExecution verifies basic command execution
func TestExecuteCommand_BasicExecution(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "echo", "hello")

	stdout, stderr, err := executeCommand(ctx, cmd, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(string(stdout), "hello") {
		t.Errorf("Expected stdout to contain 'hello', got: %s", stdout)
	}

	if len(stderr) > 0 {
		t.Errorf("Expected empty stderr, got: %s", stderr)
	}
}

// TestExecuteCommand_LargeOutput verifies no deadlock when output exceeds the pipe buffer
func TestExecuteCommand_LargeOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// ~300KB on stdout and stderr, well above the 64KB pipe buffer
	script := `i=0; while [ $i -lt 10000 ]; do echo "line $i of generated output"; echo "err $i" >&2; i=$((i+1)); done`
	cmd := newCommand(ctx, "sh", "-c", script)

	start := time.Now()
	stdout, stderr, err := executeCommand(ctx, cmd, nil)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Expected no error, got: %v (took %v)", err, duration)
	}

	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	if len(lines) != 10000 {
		t.Errorf("Expected 10000 lines of output, got %d", len(lines))
	}
	if !strings.Contains(string(stderr), "err 9999") {
		t.Error("Expected stderr to be fully drained")
	}
}

// TestStreamCommand_Lines verifies each stdout line reaches the callback in order
func TestStreamCommand_Lines(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "sh", "-c", "echo one; echo two >&2; echo three")

	var got []string
	stdout, _, err := streamCommand(ctx, cmd, nil, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if want := []string{"one", "three"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("lines = %v, want %v", got, want)
	}
	if string(stdout) != "one\nthree\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

// TestExecuteCommand_StderrCapture verifies both stdout and stderr are captured
func TestExecuteCommand_StderrCapture(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "sh", "-c", "echo error >&2; echo ok")

	stdout, stderr, err := executeCommand(ctx, cmd, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(string(stdout), "ok") {
		t.Errorf("Expected stdout to contain 'ok', got: %s", stdout)
	}

	if !strings.Contains(string(stderr), "error") {
		t.Errorf("Expected stderr to contain 'error', got: %s", stderr)
	}
}

// TestExecuteCommand_ContextCancellation verifies subprocess termination on context cancel
func TestExecuteCommand_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// The grandchild keeps the pipes open; only a group kill ends this quickly.
	cmd := newCommand(ctx, "sh", "-c", "sleep 30 & sleep 30")

	start := time.Now()
	_, _, err := executeCommand(ctx, cmd, nil)
	if err == nil {
		t.Fatal("Expected error due to context cancellation, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, process group was not killed", elapsed)
	}
}

// TestExecuteCommand_NonZeroExitCode verifies error handling and output capture on failure
func TestExecuteCommand_NonZeroExitCode(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "sh", "-c", "echo test-output; echo broken >&2; exit 3")

	stdout, _, err := executeCommand(ctx, cmd, nil)
	if err == nil {
		t.Fatal("Expected error due to non-zero exit code, got nil")
	}

	if !strings.Contains(string(stdout), "test-output") {
		t.Errorf("Expected stdout to be captured despite error, got: %s", stdout)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("Expected stderr in error message, got: %v", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitCode := exitErr.ExitCode(); exitCode != 3 {
			t.Errorf("Expected exit code 3, got %d", exitCode)
		}
	} else {
		t.Errorf("Expected error to wrap *exec.ExitError, got %T: %v", err, err)
	}
}

// TestExecuteCommand_TracksProcess verifies the manager sees the process only while it runs
func TestExecuteCommand_TracksProcess(t *testing.T) {
	pm := NewProcessManager()
	ctx := context.Background()

	seen := make(chan int, 1)
	cmd := newCommand(ctx, "sh", "-c", "echo started; sleep 0.2")
	_, _, err := streamCommand(ctx, cmd, pm, func(string) {
		seen <- pm.Count()
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if n := <-seen; n != 1 {
		t.Errorf("Expected 1 tracked process while running, got %d", n)
	}
	if pm.Count() != 0 {
		t.Errorf("Expected 0 tracked processes after exit, got %d", pm.Count())
	}
}

// TestProcessManager_TrackAndKillAll verifies ProcessManager tracks and terminates processes
func TestProcessManager_TrackAndKillAll(t *testing.T) {
	pm := NewProcessManager()

	cmd := newCommand(context.Background(), "sleep", "300")
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start process: %v", err)
	}

	pm.Track(cmd)
	if pm.Count() != 1 {
		t.Errorf("Expected 1 tracked process, got %d", pm.Count())
	}

	if err := pm.KillAll(); err != nil {
		t.Fatalf("KillAll failed: %v", err)
	}

	err := cmd.Wait()
	if err == nil {
		t.Error("Expected process to be killed (non-nil error), got nil")
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && !status.Signaled() {
			t.Errorf("Expected process to be signaled, got exit status: %v", status)
		}
	}

	pm.Untrack(cmd)
	if pm.Count() != 0 {
		t.Errorf("Expected 0 tracked processes after Untrack, got %d", pm.Count())
	}
}

// TestNoZombieProcesses verifies sequential invocations are all reaped
func TestNoZombieProcesses(t *testing.T) {
	ctx := context.Background()

	var pids []int
	for i := 1; i <= 15; i++ {
		cmd := newCommand(ctx, "echo", fmt.Sprintf("test-%d", i))

		stdout, _, err := executeCommand(ctx, cmd, nil)
		if err != nil {
			t.Fatalf("Invocation %d failed: %v", i, err)
		}
		if !strings.Contains(string(stdout), fmt.Sprintf("test-%d", i)) {
			t.Errorf("Invocation %d: unexpected output: %s", i, stdout)
		}
		pids = append(pids, cmd.Process.Pid)
	}

	for _, pid := range pids {
		// Signal 0 only checks existence; a reaped child no longer exists.
		if err := syscall.Kill(pid, 0); err == nil {
			t.Errorf("process %d still exists after Wait", pid)
		}
	}
}
