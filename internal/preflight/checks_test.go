package preflight

import (
	"strings"
	"testing"
)

func TestCheck_String(t *testing.T) {
	t.Run("passed_with_required", func(t *testing.T) {
		c := Check{
			Name:     "file_descriptors",
			Required: 100,
			Actual:   200,
			Passed:   true,
		}
		s := c.String()
		if !strings.Contains(s, "✓") {
			t.Error("Passed check should have ✓")
		}
		if !strings.Contains(s, "200") || !strings.Contains(s, "100") {
			t.Errorf("String() = %q, should contain actual and required", s)
		}
	})

	t.Run("failed_check", func(t *testing.T) {
		c := Check{Name: "command", Passed: false, Message: "not found"}
		if !strings.Contains(c.String(), "✗") {
			t.Error("Failed check should have ✗")
		}
	})

	t.Run("warning_check", func(t *testing.T) {
		c := Check{Name: "command", Passed: true, Warning: true, Message: "shadowed"}
		if !strings.Contains(c.String(), "⚠") {
			t.Error("Warning check should have ⚠")
		}
	})
}

func TestCheckCommand(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := checkCommand("sh")
		if !c.Passed {
			t.Errorf("sh should resolve: %s", c.Message)
		}
	})

	t.Run("missing", func(t *testing.T) {
		c := checkCommand("definitely-no-such-binary-xyz")
		if c.Passed {
			t.Error("missing binary should fail")
		}
	})
}

func TestCheckFileDescriptors(t *testing.T) {
	c := checkFileDescriptors(1)
	if c.Actual <= 0 {
		t.Errorf("Actual = %d, expected a positive rlimit", c.Actual)
	}
	if c.Required != 1*4+64 {
		t.Errorf("Required = %d, want %d", c.Required, 68)
	}
}

func TestCheckOutputDir(t *testing.T) {
	t.Run("writable", func(t *testing.T) {
		c := checkOutputDir(t.TempDir())
		if !c.Passed {
			t.Errorf("temp dir should be writable: %s", c.Message)
		}
	})

	t.Run("missing", func(t *testing.T) {
		c := checkOutputDir("/no/such/dir")
		if c.Passed {
			t.Error("missing dir should fail")
		}
	})
}

func TestRunAll(t *testing.T) {
	t.Run("all_pass", func(t *testing.T) {
		result := RunAll("sh", t.TempDir(), 1)
		if !result.Passed {
			for _, c := range result.Checks {
				t.Logf("%s", c.String())
			}
			t.Error("expected all checks to pass")
		}
		if len(result.Checks) != 3 {
			t.Errorf("Checks = %d, want 3", len(result.Checks))
		}
	})

	t.Run("bad_command_fails_result", func(t *testing.T) {
		result := RunAll("definitely-no-such-binary-xyz", t.TempDir(), 1)
		if result.Passed {
			t.Error("expected failed result")
		}
	})
}

func TestSuggestFix(t *testing.T) {
	for _, name := range []string{"command", "file_descriptors", "output_dir", "other"} {
		if suggestFix(name) == "" {
			t.Errorf("suggestFix(%q) empty", name)
		}
	}
}
