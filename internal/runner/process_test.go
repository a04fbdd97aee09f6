package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func drain(h Handle) []string {
	var lines []string
	for line := range h.Lines() {
		lines = append(lines, line)
	}
	return lines
}

func TestBuildArgsContract(t *testing.T) {
	args := BuildArgs(Params{
		ModelPath:   "/models/bitnet.gguf",
		NPredict:    128,
		Threads:     4,
		Prompt:      "User: hi\nAssistant:",
		CtxSize:     2048,
		Temperature: 0.7,
		TopK:        40,
		TopP:        0.95,
	})

	want := []string{
		"-m", "/models/bitnet.gguf",
		"-n", "128",
		"-t", "4",
		"-p", "User: hi\nAssistant:",
		"-ngl", "0",
		"-c", "2048",
		"--temp", "0.7",
		"-b", "1",
		"--top_k", "40",
		"--top_p", "0.95",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("BuildArgs() = %v, want %v", args, want)
	}
}

func TestRunCompletes(t *testing.T) {
	script := writeScript(t, `echo "first line"
echo "second line"`)

	h, err := NewProcessRunner().Run(context.Background(), Invocation{
		ExecPath: script,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	lines := drain(h)
	disp, err := h.Wait()
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if disp != Completed {
		t.Errorf("disposition = %s, want completed", disp)
	}
	if len(lines) != 2 || lines[0] != "first line" || lines[1] != "second line" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, `echo "started"
exec sleep 30`)

	start := time.Now()
	h, err := NewProcessRunner().Run(context.Background(), Invocation{
		ExecPath:  script,
		Timeout:   100 * time.Millisecond,
		TermGrace: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	drain(h)
	disp, err := h.Wait()
	if disp != TimedOut {
		t.Errorf("disposition = %s, want timed_out", disp)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("termination took %s, child outlived the timeout bound", elapsed)
	}
}

func TestRunCancellation(t *testing.T) {
	script := writeScript(t, `exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	h, err := NewProcessRunner().Run(ctx, Invocation{
		ExecPath:  script,
		TermGrace: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	drain(h)
	disp, err := h.Wait()
	if disp != Killed {
		t.Errorf("disposition = %s, want killed", disp)
	}
	if err == nil {
		t.Error("expected a cancellation error")
	}
}

func TestRunExecutableNotFound(t *testing.T) {
	_, err := NewProcessRunner().Run(context.Background(), Invocation{
		ExecPath: filepath.Join(t.TempDir(), "missing"),
	})
	if !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("expected ErrExecutableNotFound, got %v", err)
	}
}

func TestRunAbnormalExit(t *testing.T) {
	script := writeScript(t, `echo "partial"
exit 3`)

	h, err := NewProcessRunner().Run(context.Background(), Invocation{
		ExecPath: script,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	drain(h)
	disp, err := h.Wait()
	if disp != Failed {
		t.Errorf("disposition = %s, want failed", disp)
	}
	if !errors.Is(err, ErrAbnormalExit) {
		t.Errorf("expected ErrAbnormalExit, got %v", err)
	}
}

func TestRunNeverLingersAfterWait(t *testing.T) {
	script := writeScript(t, `echo "done"`)

	h, err := NewProcessRunner().Run(context.Background(), Invocation{
		ExecPath: script,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	drain(h)
	// Wait must be idempotent and always report a terminal state.
	for i := 0; i < 3; i++ {
		disp, _ := h.Wait()
		if disp != Completed {
			t.Fatalf("Wait() #%d = %s, want completed", i, disp)
		}
	}
}
