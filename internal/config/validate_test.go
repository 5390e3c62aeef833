package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Command = "/bin/echo"
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validConfig(t)); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "missing_command",
			mutate: func(c *Config) { c.Command = "" },
			field:  "command",
		},
		{
			name:   "negative_iterations",
			mutate: func(c *Config) { c.Iterations = -1 },
			field:  "iterations",
		},
		{
			name: "no_iterations_no_duration",
			mutate: func(c *Config) {
				c.Iterations = 0
				c.Duration = 0
			},
			field: "iterations",
		},
		{
			name:   "zero_parallel",
			mutate: func(c *Config) { c.Parallel = 0 },
			field:  "parallel",
		},
		{
			name:   "no_strategies",
			mutate: func(c *Config) { c.Strategies = nil },
			field:  "strategy",
		},
		{
			name:   "unknown_strategy",
			mutate: func(c *Config) { c.Strategies = []string{"bogus"} },
			field:  "strategy",
		},
		{
			name:   "missing_output_dir",
			mutate: func(c *Config) { c.OutputDir = "/no/such/dir" },
			field:  "output_dir",
		},
		{
			name:   "bad_log_format",
			mutate: func(c *Config) { c.LogFormat = "xml" },
			field:  "log_format",
		},
		{
			name: "tui_with_verbose",
			mutate: func(c *Config) {
				c.TUIEnabled = true
				c.Verbose = true
			},
			field: "tui",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention field %q", err, tt.field)
			}
		})
	}
}

func TestValidate_DurationOnlyIsOK(t *testing.T) {
	cfg := validConfig(t)
	cfg.Iterations = 0
	cfg.Duration = 5 * time.Second
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() = %v, want nil with duration set", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Command = ""
	cfg.Parallel = 0
	cfg.LogFormat = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, field := range []string{"command", "parallel", "log_format"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %q: %v", field, err)
		}
	}
}
