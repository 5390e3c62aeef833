// Package main provides the go-spawn-bench CLI entry point.
//
// go-spawn-bench measures the cost of spawning child processes under
// different stdout/stderr redirection strategies: discarding output,
// inheriting the parent's handles, OS-level file redirection, and the
// pipe-drain variants.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-spawn-bench/internal/bench"
	"github.com/randomizedcoder/go-spawn-bench/internal/config"
	"github.com/randomizedcoder/go-spawn-bench/internal/logging"
	"github.com/randomizedcoder/go-spawn-bench/internal/metrics"
	"github.com/randomizedcoder/go-spawn-bench/internal/preflight"
	"github.com/randomizedcoder/go-spawn-bench/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-spawn-bench
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-spawn-bench %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// When the TUI is enabled, suppress logs so they cannot interfere
	// with dashboard rendering.
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	if !cfg.SkipPreflight {
		result := preflight.RunAll(cfg.Command, cfg.OutputDir, cfg.Parallel)
		if cfg.TUIEnabled {
			// Keep stdout clean for the dashboard; only block on failure.
			if !result.Passed {
				preflight.PrintResults(result)
				return 1
			}
		} else {
			preflight.PrintResults(result)
			if !result.Passed {
				fmt.Fprintln(os.Stderr, "preflight checks failed (use -skip-preflight to override)")
				return 1
			}
		}
	}

	logger.Info("starting",
		"version", version,
		"command", cfg.Command,
		"strategies", cfg.Strategies,
		"iterations", cfg.Iterations,
		"parallel", cfg.Parallel,
		"metrics_addr", cfg.MetricsAddr,
	)

	collector := metrics.NewCollector(metrics.CollectorConfig{
		Version: version,
		Command: cfg.Command,
	})
	runner := bench.New(cfg, logger, collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var runErr error
	if cfg.TUIEnabled {
		runErr = runWithTUI(ctx, cfg, runner)
	} else {
		runErr = runner.Run(ctx)
	}
	if runErr != nil {
		logger.Error("run_failed", "error", runErr)
		return 1
	}

	printSummary(runner, cfg)

	if cfg.DumpMetrics {
		if err := metrics.DumpText(os.Stdout); err != nil {
			logger.Error("metrics_dump_failed", "error", err)
			return 1
		}
	}

	return 0
}

// runWithTUI runs the soak loop under the live dashboard. The runner
// drives completion; the dashboard quits when the run finishes or the
// user presses q.
func runWithTUI(ctx context.Context, cfg *config.Config, runner *bench.Runner) error {
	model := tui.New(tui.Config{
		Command:     cfg.Command,
		MetricsAddr: cfg.MetricsAddr,
		Source:      runner,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner.Run(ctx)
		tui.SendQuit(program)
	}()

	if _, err := program.Run(); err != nil {
		// Dashboard failed; stop the run and surface its outcome.
		cancel()
		<-runDone
		return fmt.Errorf("tui: %w", err)
	}

	// Quit key pressed before completion cancels the run.
	cancel()
	return <-runDone
}

// printSummary logs the final per-strategy latency distribution.
func printSummary(runner *bench.Runner, cfg *config.Config) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Println("                     go-spawn-bench Summary")
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Printf("Command:     %s\n", cfg.Command)
	fmt.Printf("Completed:   %d\n", runner.Completed())
	fmt.Printf("Failed:      %d\n", runner.Failed())
	fmt.Println()

	snapshots := runner.Snapshots()
	if len(snapshots) > 0 {
		fmt.Printf("%-18s %8s %12s %12s %12s %12s\n",
			"STRATEGY", "COUNT", "P50", "P95", "P99", "MAX")
		for _, s := range snapshots {
			fmt.Printf("%-18s %8d %12s %12s %12s %12s\n",
				s.Strategy, s.Count, s.P50, s.P95, s.P99, s.Max)
		}
		fmt.Println()
	}

	if cfg.MetricsAddr != "" {
		fmt.Printf("Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println("═══════════════════════════════════════════════════════════════════")
}
