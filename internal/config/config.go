// Package config provides configuration management for go-spawn-bench.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy names accepted in Config.Strategies. Each maps to one
// redirection setup for the spawned command's stdout/stderr.
const (
	StrategyDiscard        = "discard"         // both streams to the null device
	StrategyInherit        = "inherit"         // both streams inherit the parent's handles
	StrategyFile           = "file"            // both streams OS-redirected to one file
	StrategyPipeLines      = "pipe-lines"      // stdout piped, drained line by line
	StrategyPipeReadAll    = "pipe-readall"    // stdout piped, drained as one buffer
	StrategyPipeConcurrent = "pipe-concurrent" // both streams piped, one reader goroutine each
	StrategyPipeSequential = "pipe-sequential" // both streams piped, stdout drained before stderr (hazard)
)

// AllStrategies lists every strategy in execution order.
var AllStrategies = []string{
	StrategyDiscard,
	StrategyInherit,
	StrategyFile,
	StrategyPipeLines,
	StrategyPipeReadAll,
	StrategyPipeConcurrent,
	StrategyPipeSequential,
}

// Config holds all configuration options for the soak runner.
type Config struct {
	// Workload
	Command    string
	Args       []string
	Strategies []string
	Iterations int           // per strategy; 0 = until Duration
	Parallel   int           // concurrent workers
	Duration   time.Duration // 0 = run Iterations only
	OutputDir  string        // redirect targets and the workspace lock

	// Observability
	MetricsAddr string // empty = no metrics server
	DumpMetrics bool
	Verbose     bool
	LogFormat   string // json, text

	// Dashboard
	TUIEnabled bool

	// Diagnostic modes
	SkipPreflight bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Command:    "",
		Strategies: AllStrategies[:len(AllStrategies)-1], // pipe-sequential is opt-in
		Iterations: 100,
		Parallel:   1,
		Duration:   0,
		OutputDir:  os.TempDir(),

		MetricsAddr: "",
		Verbose:     false,
		LogFormat:   "json",

		TUIEnabled: false,
	}
}

// fileConfig mirrors Config for YAML decoding. Pointer fields distinguish
// "absent" from zero values; durations are strings like "30s".
type fileConfig struct {
	Command    *string  `yaml:"command"`
	Args       []string `yaml:"args"`
	Strategies []string `yaml:"strategies"`
	Iterations *int     `yaml:"iterations"`
	Parallel   *int     `yaml:"parallel"`
	Duration   *string  `yaml:"duration"`
	OutputDir  *string  `yaml:"output_dir"`

	MetricsAddr *string `yaml:"metrics_addr"`
	DumpMetrics *bool   `yaml:"dump_metrics"`
	Verbose     *bool   `yaml:"verbose"`
	LogFormat   *string `yaml:"log_format"`

	TUIEnabled *bool `yaml:"tui"`
}

// LoadFile overlays YAML configuration from path onto cfg. Fields absent
// from the file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Command != nil {
		cfg.Command = *fc.Command
	}
	if fc.Args != nil {
		cfg.Args = fc.Args
	}
	if fc.Strategies != nil {
		cfg.Strategies = fc.Strategies
	}
	if fc.Iterations != nil {
		cfg.Iterations = *fc.Iterations
	}
	if fc.Parallel != nil {
		cfg.Parallel = *fc.Parallel
	}
	if fc.Duration != nil {
		d, err := time.ParseDuration(*fc.Duration)
		if err != nil {
			return fmt.Errorf("parse config %s: duration: %w", path, err)
		}
		cfg.Duration = d
	}
	if fc.OutputDir != nil {
		cfg.OutputDir = *fc.OutputDir
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.DumpMetrics != nil {
		cfg.DumpMetrics = *fc.DumpMetrics
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.TUIEnabled != nil {
		cfg.TUIEnabled = *fc.TUIEnabled
	}
	return nil
}
