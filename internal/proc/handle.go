// Package proc owns one spawned OS process from creation to exit.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-spawn-bench/internal/policy"
)

// ExitStatus describes how a process terminated.
type ExitStatus struct {
	// Code is the exit code on normal termination, or 128+signal when the
	// process was terminated by a signal.
	Code int

	// Killed is true when the process was terminated by a signal.
	Killed bool

	// Signal is the terminating signal when Killed is true.
	Signal syscall.Signal
}

// Handle wraps one live or exited OS process. It is exclusively owned by
// the caller that created it and is not safe for concurrent use, except
// for Wait, Kill, and Stop which may be called from other goroutines.
type Handle struct {
	cmd *exec.Cmd

	stdout *os.File // pipe read end, non-nil only under a pipe policy
	stderr *os.File // pipe read end, non-nil only under a pipe policy

	files      []*os.File // owned redirect targets, closed by Close
	pipeWrites []*os.File // parent copies of pipe write ends, closed after Start

	// waitDone receives the single cmd.Wait result; exited is closed when
	// the process exits and is readable from any number of goroutines.
	waitDone <-chan error
	exited   <-chan struct{}

	waitMu sync.Mutex
	waited bool
	status ExitStatus
}

// Command names the executable to spawn.
type Command struct {
	Path string
	Args []string

	// Dir is the child's working directory; empty means inherit.
	Dir string

	// Env replaces the child's environment when non-nil.
	Env []string
}

// Spawn launches command with its standard streams configured per policy.
// Stdin is always connected to the null device; no benchmark scenario
// supplies input and an open stdin could block the child on reads.
//
// The child is placed in its own process group so Kill and Stop can
// signal the whole group.
func Spawn(ctx context.Context, command Command, stdoutPol, stderrPol policy.Policy) (*Handle, error) {
	cmd := exec.CommandContext(ctx, command.Path, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = command.Env

	h := &Handle{cmd: cmd}

	if err := h.configureStreams(stdoutPol, stderrPol); err != nil {
		h.closeAll()
		return nil, err
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		h.closeAll()
		return nil, fmt.Errorf("spawn %s: %w", command.Path, err)
	}

	// The child holds its own copies of the pipe write ends. Closing the
	// parent's copies now is what lets readers see EOF when the child
	// exits or is killed.
	h.closeWriteEnds()

	// Exactly one cmd.Wait call is made per process. Starting the goroutine
	// here guarantees the invariant; Wait consumes the channel once and
	// caches the result.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	h.waitDone = done
	h.exited = exited

	return h, nil
}

// configureStreams sets up cmd.Stdout/Stderr per the two policies.
// When both policies redirect to the same file path, a single handle is
// shared so the streams interleave in one file.
func (h *Handle) configureStreams(stdoutPol, stderrPol policy.Policy) error {
	stdoutFile, err := h.setupStdout(stdoutPol)
	if err != nil {
		return fmt.Errorf("configure stdout: %w", err)
	}

	if stdoutFile != nil &&
		stderrPol.Kind() == policy.KindToFile &&
		stderrPol.Path() == stdoutPol.Path() {
		h.cmd.Stderr = stdoutFile
		return nil
	}

	if err := h.setupStderr(stderrPol); err != nil {
		return fmt.Errorf("configure stderr: %w", err)
	}
	return nil
}

// setupStdout resolves the stdout policy. Leaving cmd.Stdout nil connects
// the child to the null device (os/exec wires nil to os.DevNull), so the
// discard policy moves no bytes through this process.
func (h *Handle) setupStdout(p policy.Policy) (*os.File, error) {
	switch p.Kind() {
	case policy.KindDiscard, "":
		return nil, nil
	case policy.KindInherit:
		h.cmd.Stdout = os.Stdout
		return nil, nil
	case policy.KindToFile:
		f, err := os.Create(p.Path())
		if err != nil {
			return nil, err
		}
		h.files = append(h.files, f)
		h.cmd.Stdout = f
		return f, nil
	case policy.KindToPipe:
		// An explicit os.Pipe keeps the read end under this handle's
		// control; cmd.Wait never closes it underneath a slow reader the
		// way StdoutPipe's managed pipe would.
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		h.stdout = r
		h.pipeWrites = append(h.pipeWrites, w)
		h.cmd.Stdout = w
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown policy kind %q", p.Kind())
	}
}

// setupStderr resolves the stderr policy.
func (h *Handle) setupStderr(p policy.Policy) error {
	switch p.Kind() {
	case policy.KindDiscard, "":
		return nil
	case policy.KindInherit:
		h.cmd.Stderr = os.Stderr
		return nil
	case policy.KindToFile:
		f, err := os.Create(p.Path())
		if err != nil {
			return err
		}
		h.files = append(h.files, f)
		h.cmd.Stderr = f
		return nil
	case policy.KindToPipe:
		r, w, err := os.Pipe()
		if err != nil {
			return err
		}
		h.stderr = r
		h.pipeWrites = append(h.pipeWrites, w)
		h.cmd.Stderr = w
		return nil
	default:
		return fmt.Errorf("unknown policy kind %q", p.Kind())
	}
}

// PID returns the OS process identifier.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Stdout returns the stdout pipe reader, or nil when stdout is not piped.
func (h *Handle) Stdout() io.Reader {
	if h.stdout == nil {
		return nil
	}
	return h.stdout
}

// Stderr returns the stderr pipe reader, or nil when stderr is not piped.
func (h *Handle) Stderr() io.Reader {
	if h.stderr == nil {
		return nil
	}
	return h.stderr
}

// Exited returns a channel closed when the process exits. Safe to select
// on from any number of goroutines.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

// Wait blocks until the process exits and returns its status. Calling
// Wait again after exit is idempotent and returns the cached status.
// A non-nil error indicates the wait itself failed, not a non-zero exit.
func (h *Handle) Wait() (ExitStatus, error) {
	h.waitMu.Lock()
	defer h.waitMu.Unlock()

	if h.waited {
		return h.status, nil
	}

	waitErr := <-h.waitDone
	status, err := extractStatus(waitErr)
	if err != nil {
		return ExitStatus{}, fmt.Errorf("wait: %w", err)
	}
	h.status = status
	h.waited = true
	return status, nil
}

// Kill sends SIGKILL to the process group. Best effort; used only for
// cancellation. A blocked pipe reader unblocks once process teardown
// closes the child's descriptors.
func (h *Handle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	if pgid, err := syscall.Getpgid(h.cmd.Process.Pid); err == nil {
		return syscall.Kill(-pgid, syscall.SIGKILL)
	}
	return h.cmd.Process.Kill()
}

// Stop terminates the process gracefully: SIGTERM first, then SIGKILL if
// it has not exited within timeout.
func (h *Handle) Stop(timeout time.Duration) error {
	if h.cmd.Process == nil {
		return nil
	}

	pid := h.cmd.Process.Pid
	if pgid, err := syscall.Getpgid(pid); err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-h.exited:
		return nil
	case <-time.After(timeout):
		_ = h.Kill()
		<-h.exited
		return errors.New("process did not exit gracefully")
	}
}

// Close releases owned redirect file handles and pipe read ends. Safe to
// call multiple times.
func (h *Handle) Close() {
	h.closeFiles()
	if h.stdout != nil {
		_ = h.stdout.Close()
		h.stdout = nil
	}
	if h.stderr != nil {
		_ = h.stderr.Close()
		h.stderr = nil
	}
}

func (h *Handle) closeFiles() {
	for _, f := range h.files {
		_ = f.Close()
	}
	h.files = nil
}

func (h *Handle) closeWriteEnds() {
	for _, w := range h.pipeWrites {
		_ = w.Close()
	}
	h.pipeWrites = nil
}

// closeAll tears down every descriptor after a failed spawn.
func (h *Handle) closeAll() {
	h.closeWriteEnds()
	h.Close()
}

// extractStatus converts a cmd.Wait error into an ExitStatus. Signal
// exits report Code as 128+signal. Errors that do not describe a process
// exit (e.g. the process was reaped elsewhere) are returned as-is.
func extractStatus(err error) (ExitStatus, error) {
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				sig := ws.Signal()
				return ExitStatus{
					Code:   128 + int(sig),
					Killed: true,
					Signal: sig,
				}, nil
			}
			return ExitStatus{Code: ws.ExitStatus()}, nil
		}
		return ExitStatus{Code: exitErr.ExitCode()}, nil
	}

	return ExitStatus{}, err
}
