// Package bench drives repeated executions of a child command across
// the configured redirection strategies and aggregates the outcomes.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/go-spawn-bench/internal/config"
	"github.com/randomizedcoder/go-spawn-bench/internal/drain"
	"github.com/randomizedcoder/go-spawn-bench/internal/executor"
	"github.com/randomizedcoder/go-spawn-bench/internal/metrics"
	"github.com/randomizedcoder/go-spawn-bench/internal/policy"
	"github.com/randomizedcoder/go-spawn-bench/internal/stats"
)

// lockFileName guards the output directory against concurrent runs
// clobbering each other's redirect targets.
const lockFileName = "spawnbench.lock"

// Runner coordinates the soak loop for one invocation.
type Runner struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	latency *stats.LatencyTracker

	metricsServer *metrics.Server
	lock          *flock.Flock

	completed atomic.Int64
	failed    atomic.Int64

	startTime time.Time
}

// New creates a Runner. The collector must already be registered.
func New(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) *Runner {
	r := &Runner{
		config:  cfg,
		logger:  logger,
		metrics: collector,
		latency: stats.NewLatencyTracker(),
		lock:    flock.New(filepath.Join(cfg.OutputDir, lockFileName)),
	}

	if cfg.MetricsAddr != "" {
		r.metricsServer = metrics.NewServer(cfg.MetricsAddr, logger)
	}

	return r
}

// Run executes every configured strategy to completion. It blocks until
// all iterations finish, the duration elapses, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()

	locked, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", r.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%s is held by another run", r.lock.Path())
	}
	defer r.lock.Unlock()

	if r.metricsServer != nil {
		if err := r.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.metricsServer.Shutdown(shutdownCtx); err != nil {
				r.logger.Warn("metrics_server_shutdown_error", "error", err)
			}
		}()
	}

	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.logger.Info("run_starting",
		"command", r.config.Command,
		"strategies", r.config.Strategies,
		"iterations", r.config.Iterations,
		"parallel", r.config.Parallel,
	)

	for _, strategy := range r.config.Strategies {
		if ctx.Err() != nil {
			break
		}
		if err := r.runStrategy(ctx, strategy); err != nil {
			return fmt.Errorf("strategy %s: %w", strategy, err)
		}
	}

	r.cleanupTargets()
	return nil
}

// runStrategy runs one strategy's iterations across the worker pool.
// The first execution error stops the whole strategy.
func (r *Runner) runStrategy(ctx context.Context, strategy string) error {
	var issued atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.config.Parallel; w++ {
		worker := w
		g.Go(func() error {
			spec := r.specFor(strategy, worker)
			for {
				if gctx.Err() != nil {
					return nil
				}
				n := issued.Add(1)
				if r.config.Iterations > 0 && n > int64(r.config.Iterations) {
					return nil
				}
				if err := r.runOnce(gctx, strategy, spec); err != nil {
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info("strategy_complete",
		"strategy", strategy,
		"count", r.latency.Count(strategy),
		"p50", r.latency.Quantile(strategy, 0.50).String(),
		"p99", r.latency.Quantile(strategy, 0.99).String(),
	)
	return nil
}

// runOnce performs a single execution and records its outcome.
func (r *Runner) runOnce(ctx context.Context, strategy string, spec executor.Spec) error {
	r.metrics.ExecutionStarted()

	res, err := executor.Execute(ctx, spec)
	if err != nil {
		// Cancellation mid-execution is a stop condition, not a failure.
		if ctx.Err() != nil {
			r.metrics.RecordFailure(strategy, "cancelled")
			return nil
		}
		r.failed.Add(1)
		r.metrics.RecordFailure(strategy, failingStep(err))
		return err
	}

	r.completed.Add(1)
	r.latency.Record(strategy, res.Duration)
	r.metrics.RecordExecution(strategy, res.Duration, res.ExitCode())
	r.metrics.RecordBytesDrained("stdout", streamBytes(res.Stdout))
	r.metrics.RecordBytesDrained("stderr", streamBytes(res.Stderr))
	return nil
}

// specFor maps a strategy name to an execution spec. Worker IDs keep
// file-redirect targets distinct between concurrent workers.
func (r *Runner) specFor(strategy string, worker int) executor.Spec {
	spec := executor.Spec{
		Command: r.config.Command,
		Args:    r.config.Args,
	}

	switch strategy {
	case config.StrategyDiscard:
		spec.Stdout = policy.Discard()
		spec.Stderr = policy.Discard()
	case config.StrategyInherit:
		spec.Stdout = policy.Inherit()
		spec.Stderr = policy.Inherit()
	case config.StrategyFile:
		target := r.targetPath(strategy, worker)
		spec.Stdout = policy.ToFile(target)
		spec.Stderr = policy.ToFile(target)
	case config.StrategyPipeLines:
		spec.Stdout = policy.ToPipe(policy.LineByLine)
		spec.Stderr = policy.Discard()
	case config.StrategyPipeReadAll:
		spec.Stdout = policy.ToPipe(policy.ReadAll)
		spec.Stderr = policy.Discard()
	case config.StrategyPipeConcurrent:
		spec.Stdout = policy.ToPipe(policy.ConcurrentLineByLine)
		spec.Stderr = policy.ToPipe(policy.ConcurrentLineByLine)
	case config.StrategyPipeSequential:
		spec.Stdout = policy.ToPipe(policy.LineByLine)
		spec.Stderr = policy.ToPipe(policy.LineByLine)
		spec.AllowSequentialDrain = true
	}

	return spec
}

// targetPath returns the file-redirect target for one worker.
func (r *Runner) targetPath(strategy string, worker int) string {
	return filepath.Join(r.config.OutputDir, fmt.Sprintf("spawnbench-%s-w%d.out", strategy, worker))
}

// cleanupTargets removes the redirect target files left by file runs.
func (r *Runner) cleanupTargets() {
	for _, strategy := range r.config.Strategies {
		if strategy != config.StrategyFile {
			continue
		}
		for w := 0; w < r.config.Parallel; w++ {
			if err := os.Remove(r.targetPath(strategy, w)); err != nil && !os.IsNotExist(err) {
				r.logger.Warn("cleanup_failed", "path", r.targetPath(strategy, w), "error", err)
			}
		}
	}
}

// failingStep extracts the step label from an execution error.
func failingStep(err error) string {
	var execErr *executor.ExecError
	if errors.As(err, &execErr) {
		return string(execErr.Step)
	}
	return "unknown"
}

// streamBytes counts the bytes captured in one stream's data.
func streamBytes(sd drain.StreamData) int {
	n := len(sd.Raw)
	for _, line := range sd.Lines {
		n += len(line) + 1
	}
	return n
}

// Snapshots returns the per-strategy latency view for the dashboard.
func (r *Runner) Snapshots() []stats.Snapshot {
	return r.latency.Snapshots()
}

// Completed returns the number of successful executions so far.
func (r *Runner) Completed() int64 {
	return r.completed.Load()
}

// Failed returns the number of failed executions so far.
func (r *Runner) Failed() int64 {
	return r.failed.Load()
}

// Elapsed returns the wall-clock time since Run started.
func (r *Runner) Elapsed() time.Duration {
	if r.startTime.IsZero() {
		return 0
	}
	return time.Since(r.startTime)
}
