package metrics

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Register the shared collectors with the default registry exactly once
// so the Gather and DumpText paths see them.
func TestMain(m *testing.M) {
	NewCollector(CollectorConfig{Version: "test", Command: "/bin/echo"})
	os.Exit(m.Run())
}

func TestCollector_RecordExecution(t *testing.T) {
	c := NewCollectorWithRegistry(CollectorConfig{
		Version: "test",
		Command: "/bin/echo",
	}, prometheus.NewRegistry())

	c.ExecutionStarted()
	c.RecordExecution("discard", 5*time.Millisecond, 0)
	c.ExecutionStarted()
	c.RecordExecution("discard", 7*time.Millisecond, 1)

	if got := c.Executions(); got != 2 {
		t.Errorf("Executions() = %d, want 2", got)
	}

	codes := c.ExitCodes()
	if codes[0] != 1 || codes[1] != 1 {
		t.Errorf("ExitCodes() = %v, want one of each", codes)
	}
}

func TestCollector_ExitCodesIsACopy(t *testing.T) {
	c := NewCollectorWithRegistry(CollectorConfig{}, prometheus.NewRegistry())
	c.ExecutionStarted()
	c.RecordExecution("file", time.Millisecond, 0)

	codes := c.ExitCodes()
	codes[0] = 99

	if got := c.ExitCodes()[0]; got != 1 {
		t.Errorf("internal count mutated through copy: %d", got)
	}
}

func TestCollector_RecordFailure(t *testing.T) {
	c := NewCollectorWithRegistry(CollectorConfig{}, prometheus.NewRegistry())
	c.ExecutionStarted()
	c.RecordFailure("pipe-lines", "drain")

	// Failures do not count as completed executions.
	if got := c.Executions(); got != 0 {
		t.Errorf("Executions() = %d, want 0", got)
	}
}

func TestGather_ExposesFamilies(t *testing.T) {
	spawnExecutionsTotal.WithLabelValues("readall-test").Inc()

	families, err := Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if CounterValue(families, "spawn_bench_executions_total") < 1 {
		t.Error("expected spawn_bench_executions_total >= 1")
	}
}

func TestDumpText(t *testing.T) {
	spawnBytesDrainedTotal.WithLabelValues("stdout").Add(10)

	var buf bytes.Buffer
	if err := DumpText(&buf); err != nil {
		t.Fatalf("DumpText() error: %v", err)
	}
	if !strings.Contains(buf.String(), "spawn_bench_bytes_drained_total") {
		t.Errorf("dump missing bytes counter:\n%s", buf.String())
	}
}

func TestCounterValue_AbsentFamily(t *testing.T) {
	families, err := Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if got := CounterValue(families, "no_such_metric"); got != 0 {
		t.Errorf("CounterValue(absent) = %v, want 0", got)
	}
}
