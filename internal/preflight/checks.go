// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks.
func RunAll(command, outputDir string, parallel int) *Result {
	result := &Result{
		Checks: make([]Check, 0, 3),
		Passed: true,
	}

	cmdCheck := checkCommand(command)
	result.Checks = append(result.Checks, cmdCheck)
	if !cmdCheck.Passed {
		result.Passed = false
	}

	fdCheck := checkFileDescriptors(parallel)
	result.Checks = append(result.Checks, fdCheck)
	if !fdCheck.Passed {
		result.Passed = false
	}

	dirCheck := checkOutputDir(outputDir)
	result.Checks = append(result.Checks, dirCheck)
	if !dirCheck.Passed {
		result.Passed = false
	}

	return result
}

// checkCommand verifies the benchmark target resolves to an executable.
func checkCommand(command string) Check {
	path, err := exec.LookPath(command)
	if err != nil {
		return Check{
			Name:    "command",
			Passed:  false,
			Message: fmt.Sprintf("%s not found in PATH: %v", command, err),
		}
	}

	return Check{
		Name:    "command",
		Passed:  true,
		Message: fmt.Sprintf("found at %s", path),
	}
}

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors(parallel int) Check {
	var limit syscall.Rlimit
	syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit)

	// Each worker needs up to 4 FDs for pipes and redirect targets,
	// plus metrics server and logging overhead.
	required := parallel*4 + 64
	actual := int(limit.Cur)

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d for %d workers)", actual, required, parallel),
	}
}

// checkOutputDir verifies the redirect target directory is writable.
func checkOutputDir(dir string) Check {
	probe := filepath.Join(dir, fmt.Sprintf(".spawnbench-probe-%d", os.Getpid()))
	f, err := os.Create(probe)
	if err != nil {
		return Check{
			Name:    "output_dir",
			Passed:  false,
			Message: fmt.Sprintf("%s not writable: %v", dir, err),
		}
	}
	f.Close()
	os.Remove(probe)

	return Check{
		Name:    "output_dir",
		Passed:  true,
		Message: fmt.Sprintf("%s writable", dir),
	}
}

// PrintResults prints the preflight check results to stdout.
func PrintResults(result *Result) {
	fmt.Println("Preflight checks:")
	for _, check := range result.Checks {
		fmt.Println(check.String())
		if !check.Passed {
			fmt.Printf("    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Println()
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "command":
		return "install the target command or pass an absolute path"
	case "file_descriptors":
		return "ulimit -n 8192 (or edit /etc/security/limits.conf)"
	case "output_dir":
		return "pass a writable directory with -output-dir"
	default:
		return "see documentation"
	}
}
