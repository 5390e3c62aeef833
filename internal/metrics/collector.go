// Package metrics provides Prometheus metrics for go-spawn-bench.
//
// All metrics are aggregate; strategies are a low-cardinality label so
// per-strategy series are safe at any worker count.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	spawnInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spawn_bench_info",
			Help: "Information about the running soak loop (value always 1)",
		},
		[]string{"version", "command"},
	)

	spawnExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawn_bench_executions_total",
			Help: "Completed executions per redirection strategy",
		},
		[]string{"strategy"},
	)

	spawnFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawn_bench_failures_total",
			Help: "Failed executions per strategy and failing step",
		},
		[]string{"strategy", "step"},
	)

	spawnExitCodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawn_bench_exit_codes_total",
			Help: "Child exit codes observed",
		},
		[]string{"code"},
	)

	spawnDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spawn_bench_execution_duration_seconds",
			Help:    "Wall-clock duration of one execution",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"strategy"},
	)

	spawnBytesDrainedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawn_bench_bytes_drained_total",
			Help: "Bytes captured from piped streams",
		},
		[]string{"stream"},
	)

	spawnInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spawn_bench_executions_in_flight",
			Help: "Executions currently running",
		},
	)
)

// Collector records execution outcomes into the Prometheus registry.
type Collector struct {
	mu         sync.Mutex
	exitCodes  map[int]int64
	executions int64
}

// CollectorConfig holds static label values.
type CollectorConfig struct {
	Version string
	Command string
}

// NewCollector creates a collector registered with the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing to avoid duplicate registration.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	registry.MustRegister(
		spawnInfo,
		spawnExecutionsTotal,
		spawnFailuresTotal,
		spawnExitCodesTotal,
		spawnDurationSeconds,
		spawnBytesDrainedTotal,
		spawnInFlight,
	)

	spawnInfo.WithLabelValues(cfg.Version, cfg.Command).Set(1)

	return &Collector{
		exitCodes: make(map[int]int64),
	}
}

// ExecutionStarted marks one execution as in flight.
func (c *Collector) ExecutionStarted() {
	spawnInFlight.Inc()
}

// RecordExecution records a completed execution.
func (c *Collector) RecordExecution(strategy string, d time.Duration, exitCode int) {
	spawnInFlight.Dec()
	spawnExecutionsTotal.WithLabelValues(strategy).Inc()
	spawnDurationSeconds.WithLabelValues(strategy).Observe(d.Seconds())
	spawnExitCodesTotal.WithLabelValues(strconv.Itoa(exitCode)).Inc()

	c.mu.Lock()
	c.exitCodes[exitCode]++
	c.executions++
	c.mu.Unlock()
}

// RecordFailure records an execution that failed at the given step.
func (c *Collector) RecordFailure(strategy, step string) {
	spawnInFlight.Dec()
	spawnFailuresTotal.WithLabelValues(strategy, step).Inc()
}

// RecordBytesDrained adds captured byte counts for a stream
// ("stdout" or "stderr").
func (c *Collector) RecordBytesDrained(stream string, n int) {
	if n > 0 {
		spawnBytesDrainedTotal.WithLabelValues(stream).Add(float64(n))
	}
}

// Executions returns the total completed execution count.
func (c *Collector) Executions() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executions
}

// ExitCodes returns a copy of the exit code counts.
func (c *Collector) ExitCodes() map[int]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int]int64, len(c.exitCodes))
	for code, n := range c.exitCodes {
		out[code] = n
	}
	return out
}
