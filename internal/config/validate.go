package config

import (
	"errors"
	"fmt"
	"os"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Command == "" {
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: "a command to spawn is required",
		})
	}

	if cfg.Iterations < 0 {
		errs = append(errs, ValidationError{
			Field:   "iterations",
			Message: "must not be negative",
		})
	}
	if cfg.Iterations == 0 && cfg.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "iterations",
			Message: "either iterations or duration must be set",
		})
	}

	if cfg.Parallel < 1 {
		errs = append(errs, ValidationError{
			Field:   "parallel",
			Message: "must be at least 1",
		})
	}

	if len(cfg.Strategies) == 0 {
		errs = append(errs, ValidationError{
			Field:   "strategy",
			Message: "at least one strategy is required",
		})
	}
	valid := make(map[string]bool, len(AllStrategies))
	for _, s := range AllStrategies {
		valid[s] = true
	}
	for _, s := range cfg.Strategies {
		if !valid[s] {
			errs = append(errs, ValidationError{
				Field:   "strategy",
				Message: fmt.Sprintf("unknown strategy %q", s),
			})
		}
	}

	if cfg.OutputDir == "" {
		errs = append(errs, ValidationError{
			Field:   "output_dir",
			Message: "must not be empty",
		})
	} else if info, err := os.Stat(cfg.OutputDir); err != nil || !info.IsDir() {
		errs = append(errs, ValidationError{
			Field:   "output_dir",
			Message: fmt.Sprintf("%s is not an existing directory", cfg.OutputDir),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if cfg.TUIEnabled && cfg.Verbose {
		errs = append(errs, ValidationError{
			Field:   "tui",
			Message: "verbose logging would corrupt the dashboard; use one or the other",
		})
	}

	return errors.Join(errs...)
}
