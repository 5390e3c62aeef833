// Package executor is the single entry point for running a child process
// under a pair of redirection policies: configure, spawn, drain, wait,
// assemble a result, release every owned descriptor.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/randomizedcoder/go-spawn-bench/internal/drain"
	"github.com/randomizedcoder/go-spawn-bench/internal/policy"
	"github.com/randomizedcoder/go-spawn-bench/internal/proc"
)

// Step identifies the phase at which an execution failed.
type Step string

const (
	StepValidate Step = "validate"
	StepSpawn    Step = "spawn"
	StepDrain    Step = "drain"
	StepWait     Step = "wait"
)

// ExecError carries the failing step alongside the underlying error.
type ExecError struct {
	Step Step
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Spec configures one execution. The zero policy discards a stream.
type Spec struct {
	Command string
	Args    []string

	// Dir is the child's working directory; empty means inherit.
	Dir string

	// Env replaces the child's environment when non-nil.
	Env []string

	// Stdout and Stderr select the redirection policy per stream.
	Stdout policy.Policy
	Stderr policy.Policy

	// AllowSequentialDrain opts in to draining stdout fully before
	// stderr when both streams are piped with a non-concurrent mode.
	// This reproduces a known-hazardous read pattern and can deadlock
	// if the child writes more than a pipe buffer to stderr first.
	AllowSequentialDrain bool

	// StdoutSink and StderrSink optionally observe each line drained
	// under a line mode.
	StdoutSink drain.LineSink
	StderrSink drain.LineSink
}

// Result is the immutable outcome of one execution. It is produced only
// after all drains have joined and the process has been waited on.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Status describes how the child terminated.
	Status proc.ExitStatus

	// Stdout and Stderr hold captured output, present only for streams
	// redirected to a pipe.
	Stdout drain.StreamData
	Stderr drain.StreamData

	Start    time.Time
	Duration time.Duration
}

// ExitCode returns the child's exit code.
func (r *Result) ExitCode() int {
	return r.Status.Code
}

// Execute runs spec to completion.
//
// On a mid-drain read failure the partial output already captured is
// preserved in the returned Result and the call still fails; the child
// is killed so the subsequent wait cannot block on a broken pipe.
// Concurrent Execute calls are independent and require no locking.
func Execute(ctx context.Context, spec Spec) (*Result, error) {
	if err := validate(spec); err != nil {
		return nil, &ExecError{Step: StepValidate, Err: err}
	}

	start := time.Now()

	cmd := proc.Command{
		Path: spec.Command,
		Args: spec.Args,
		Dir:  spec.Dir,
		Env:  spec.Env,
	}
	h, err := proc.Spawn(ctx, cmd, spec.Stdout, spec.Stderr)
	if err != nil {
		return nil, &ExecError{Step: StepSpawn, Err: err}
	}
	defer h.Close()

	res := &Result{
		RunID: uuid.New().String(),
		Start: start,
	}

	stdout := &drain.Stream{Name: "stdout", R: h.Stdout(), Mode: spec.Stdout.Mode(), Sink: spec.StdoutSink}
	stderr := &drain.Stream{Name: "stderr", R: h.Stderr(), Mode: spec.Stderr.Mode(), Sink: spec.StderrSink}

	drainErr := runDrain(spec, stdout, stderr)
	if drainErr != nil {
		// Reading failed; the child may now block writing. Kill it so
		// Wait below reaps instead of hanging.
		_ = h.Kill()
	}

	status, waitErr := h.Wait()

	res.Stdout = stdout.Data
	res.Stderr = stderr.Data
	res.Duration = time.Since(start)

	if drainErr != nil {
		return res, &ExecError{Step: StepDrain, Err: drainErr}
	}
	if waitErr != nil {
		return res, &ExecError{Step: StepWait, Err: waitErr}
	}

	res.Status = status
	return res, nil
}

// validate applies the policy contracts before anything is spawned.
func validate(spec Spec) error {
	if spec.Command == "" {
		return errors.New("command must not be empty")
	}
	if err := spec.Stdout.Validate(); err != nil {
		return fmt.Errorf("stdout: %w", err)
	}
	if err := spec.Stderr.Validate(); err != nil {
		return fmt.Errorf("stderr: %w", err)
	}
	if spec.AllowSequentialDrain &&
		(spec.Stdout.Mode() == policy.ConcurrentLineByLine || spec.Stderr.Mode() == policy.ConcurrentLineByLine) {
		return errors.New("AllowSequentialDrain contradicts ConcurrentLineByLine mode")
	}
	return nil
}

// runDrain picks the drain strategy. Concurrent is the default whenever
// anything is piped; the sequential order is used only on explicit
// opt-in, and never when a stream asks for ConcurrentLineByLine.
func runDrain(spec Spec, stdout, stderr *drain.Stream) error {
	if stdout.R == nil && stderr.R == nil {
		return nil
	}
	if spec.AllowSequentialDrain {
		return drain.Sequential(stdout, stderr)
	}
	return drain.Concurrent(stdout, stderr)
}
