package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ProcessRunner launches one subprocess per invocation. Processes are never
// pooled or reused.
type ProcessRunner struct{}

// NewProcessRunner creates a ProcessRunner.
func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{}
}

// Run spawns the executable and returns a Handle over its stdout. The child
// is terminated on every exit path: normal completion, timeout, and caller
// cancellation.
func (r *ProcessRunner) Run(ctx context.Context, inv Invocation) (Handle, error) {
	if _, err := os.Stat(inv.ExecPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExecutableNotFound, inv.ExecPath)
	}

	cmd := exec.Command(inv.ExecPath, inv.Args...)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	p := &process{
		cmd:        cmd,
		stdout:     stdout,
		lines:      make(chan string, 64),
		terminated: make(chan struct{}),
		done:       make(chan struct{}),
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(p.lines)
		defer close(readerDone)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case p.lines <- scanner.Text():
			case <-p.terminated:
				return
			}
		}
	}()

	// Wait must not run before stdout reads are finished.
	exited := make(chan error, 1)
	go func() {
		<-readerDone
		exited <- cmd.Wait()
	}()

	go p.supervise(ctx, inv, exited)

	return p, nil
}

// process is a single running invocation.
type process struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	lines      chan string
	terminated chan struct{} // closed when teardown begins
	done       chan struct{} // closed once the terminal state is recorded

	mu   sync.Mutex
	disp Disposition
	err  error
}

func (p *process) Lines() <-chan string {
	return p.lines
}

// Wait blocks until the invocation reaches its terminal state.
func (p *process) Wait() (Disposition, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disp, p.err
}

// supervise watches for process exit, timeout, or cancellation, and records
// exactly one terminal state.
func (p *process) supervise(ctx context.Context, inv Invocation, exited <-chan error) {
	defer close(p.done)

	var timeout <-chan time.Time
	if inv.Timeout > 0 {
		timer := time.NewTimer(inv.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-exited:
		close(p.terminated)
		if err != nil {
			p.record(Failed, fmt.Errorf("%w: %v", ErrAbnormalExit, err))
			return
		}
		p.record(Completed, nil)
	case <-timeout:
		p.terminate(inv.TermGrace, exited)
		p.record(TimedOut, fmt.Errorf("%w after %s", ErrTimeout, inv.Timeout))
	case <-ctx.Done():
		p.terminate(inv.TermGrace, exited)
		p.record(Killed, fmt.Errorf("process killed: %w", ctx.Err()))
	}
}

// terminate sends SIGTERM, waits out the grace period, then force-kills.
// It returns only after the child has exited.
func (p *process) terminate(grace time.Duration, exited <-chan error) {
	close(p.terminated)

	p.cmd.Process.Signal(syscall.SIGTERM)

	if grace <= 0 {
		grace = 2 * time.Second
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-exited:
		return
	case <-timer.C:
	}

	p.cmd.Process.Kill()

	// A grandchild inheriting the pipe can hold stdout open past the kill;
	// closing our read end unblocks the reader so Wait can complete.
	select {
	case <-exited:
	case <-time.After(grace):
		p.stdout.Close()
		<-exited
	}
}

func (p *process) record(disp Disposition, err error) {
	p.mu.Lock()
	p.disp = disp
	p.err = err
	p.mu.Unlock()
}
