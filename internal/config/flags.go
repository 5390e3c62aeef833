package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// strategyList is a custom flag type for repeatable -strategy flags.
type strategyList []string

func (s *strategyList) String() string {
	return strings.Join(*s, ", ")
}

func (s *strategyList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// ParseFlags parses command-line flags and returns a Config.
//
// A -config YAML file, when given, is loaded first so flags override
// file values. The first positional argument is the command to spawn;
// everything after it is passed to the command verbatim.
func ParseFlags(args []string, errOut io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	// Pre-pass: locate -config so file values become the flag defaults.
	if path := findConfigFlag(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("go-spawn-bench", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var strategies strategyList
	var configPath string

	fs.Usage = func() {
		fmt.Fprintf(errOut, `go-spawn-bench - micro-benchmarks for process spawn and output redirection

Usage:
  go-spawn-bench [flags] <command> [args...]

Workload Flags:
  -strategy        Redirection strategy to run, repeatable (default: all safe strategies)
  -iterations      Executions per strategy (default 100)
  -parallel        Concurrent workers (default 1)
  -duration        Stop after this long regardless of iterations (0 = iterations only)
  -output-dir      Directory for file-redirect targets and the workspace lock

Observability:
  -metrics         Prometheus metrics address (empty = disabled)
  -dump-metrics    Print the metrics registry in text format at exit
  -v               Verbose logging
  -log-format      Log format: "json" or "text"

Dashboard:
  -tui             Live terminal dashboard

Other:
  -config          YAML config file (flags override file values)
  -skip-preflight  Skip startup checks

Strategies:
  %s

Examples:
  # Compare all safe strategies over 500 spawns of /bin/echo
  go-spawn-bench -iterations 500 /bin/echo hello

  # Pipe-drain strategies only, 4 workers, metrics exposed
  go-spawn-bench -strategy pipe-lines -strategy pipe-concurrent -parallel 4 -metrics :17092 ls -l /tmp

`, strings.Join(AllStrategies, ", "))
	}

	fs.Var(&strategies, "strategy", "Redirection strategy to run (can repeat)")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "Executions per strategy")
	fs.IntVar(&cfg.Parallel, "parallel", cfg.Parallel, "Concurrent workers")
	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Stop after this long (0 = iterations only)")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory for file-redirect targets")

	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address")
	fs.BoolVar(&cfg.DumpMetrics, "dump-metrics", cfg.DumpMetrics, "Dump metrics registry at exit")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard")

	fs.StringVar(&configPath, "config", "", "YAML config file")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if len(strategies) > 0 {
		cfg.Strategies = strategies
	}

	// Positional arguments: command and its args.
	rest := fs.Args()
	if len(rest) >= 1 {
		cfg.Command = rest[0]
		cfg.Args = rest[1:]
	}

	return cfg, nil
}

// findConfigFlag scans args for -config/--config without full parsing.
func findConfigFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
