package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Iterations != 100 {
		t.Errorf("Iterations = %d, want 100", cfg.Iterations)
	}
	if cfg.Parallel != 1 {
		t.Errorf("Parallel = %d, want 1", cfg.Parallel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}

	// pipe-sequential reproduces a deadlock hazard and must be opt-in.
	for _, s := range cfg.Strategies {
		if s == StrategyPipeSequential {
			t.Error("default strategies must not include pipe-sequential")
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
command: /bin/echo
args: ["hello"]
strategies: ["discard", "file"]
iterations: 500
duration: 30s
log_format: text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Command != "/bin/echo" {
		t.Errorf("Command = %q", cfg.Command)
	}
	if !reflect.DeepEqual(cfg.Args, []string{"hello"}) {
		t.Errorf("Args = %v", cfg.Args)
	}
	if !reflect.DeepEqual(cfg.Strategies, []string{"discard", "file"}) {
		t.Errorf("Strategies = %v", cfg.Strategies)
	}
	if cfg.Iterations != 500 {
		t.Errorf("Iterations = %d, want 500", cfg.Iterations)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", cfg.Duration)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}

	// Absent fields keep defaults.
	if cfg.Parallel != 1 {
		t.Errorf("Parallel = %d, want default 1", cfg.Parallel)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		if err := LoadFile(DefaultConfig(), "/no/such/config.yaml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("bad_duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		os.WriteFile(path, []byte("duration: notaduration\n"), 0o644)
		if err := LoadFile(DefaultConfig(), path); err == nil {
			t.Error("expected error for bad duration")
		}
	})

	t.Run("bad_yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		os.WriteFile(path, []byte("strategies: [unclosed\n"), 0o644)
		if err := LoadFile(DefaultConfig(), path); err == nil {
			t.Error("expected error for unparsable yaml")
		}
	})
}
