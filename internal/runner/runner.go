// Package runner owns the lifetime of one llama-cli invocation per
// completion request: it spawns the executable, exposes its stdout as a
// line sequence, and guarantees the child never outlives the call.
package runner

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Tagged failures surfaced by the process runner.
var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrSpawn              = errors.New("failed to spawn process")
	ErrTimeout            = errors.New("process timed out")
	ErrAbnormalExit       = errors.New("process exited abnormally")
)

// Disposition is the terminal state of a process invocation. Every
// invocation reaches exactly one.
type Disposition int

const (
	Completed Disposition = iota // exited zero on its own
	TimedOut                     // terminated after exceeding the timeout
	Killed                       // terminated because the caller cancelled
	Failed                       // spawn error or abnormal exit
)

func (d Disposition) String() string {
	switch d {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed_out"
	case Killed:
		return "killed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Params are the resolved generation parameters for one invocation.
type Params struct {
	ModelPath   string
	NPredict    int
	Threads     int
	Prompt      string
	CtxSize     int
	Temperature float64
	TopK        int
	TopP        float64
}

// BuildArgs reproduces llama-cli's argument contract. The flag names, their
// order, and the fixed -ngl 0 / -b 1 values are an external interface and
// must not change.
func BuildArgs(p Params) []string {
	return []string{
		"-m", p.ModelPath,
		"-n", strconv.Itoa(p.NPredict),
		"-t", strconv.Itoa(p.Threads),
		"-p", p.Prompt,
		"-ngl", "0",
		"-c", strconv.Itoa(p.CtxSize),
		"--temp", strconv.FormatFloat(p.Temperature, 'g', -1, 64),
		"-b", "1",
		"--top_k", strconv.Itoa(p.TopK),
		"--top_p", strconv.FormatFloat(p.TopP, 'g', -1, 64),
	}
}

// Invocation describes one launch of the wrapped executable.
type Invocation struct {
	ExecPath string
	Args     []string

	// Timeout bounds the whole invocation; 0 means no timeout. TermGrace is
	// the pause between the graceful termination signal and the force kill.
	Timeout   time.Duration
	TermGrace time.Duration
}

// Handle is a running invocation. Lines yields stdout incrementally and is
// closed when output ends; Wait blocks until the terminal state is reached.
type Handle interface {
	Lines() <-chan string
	Wait() (Disposition, error)
}

// Runner launches invocations. The process-backed implementation is
// ProcessRunner; tests may substitute their own.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Handle, error)
}
