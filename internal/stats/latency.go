// Package stats tracks per-strategy wall-clock latency for the soak
// runner's live view and final summary log.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// digestCompression trades accuracy for memory; 100 matches the usual
// tdigest default and is plenty for p50/p95/p99.
const digestCompression = 100

// Snapshot is a point-in-time view of one strategy's latency.
type Snapshot struct {
	Strategy string
	Count    int64
	Min      time.Duration
	Max      time.Duration
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
}

// strategyDigest accumulates samples for one strategy.
type strategyDigest struct {
	digest *tdigest.TDigest
	count  int64
	min    time.Duration
	max    time.Duration
}

// LatencyTracker aggregates execution durations keyed by strategy name.
// Safe for concurrent use by multiple worker goroutines.
type LatencyTracker struct {
	mu      sync.Mutex
	digests map[string]*strategyDigest
}

// NewLatencyTracker creates an empty tracker.
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{
		digests: make(map[string]*strategyDigest),
	}
}

// Record adds one sample for the strategy.
func (t *LatencyTracker) Record(strategy string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sd, ok := t.digests[strategy]
	if !ok {
		sd = &strategyDigest{
			digest: tdigest.NewWithCompression(digestCompression),
			min:    d,
			max:    d,
		}
		t.digests[strategy] = sd
	}

	sd.digest.Add(float64(d), 1)
	sd.count++
	if d < sd.min {
		sd.min = d
	}
	if d > sd.max {
		sd.max = d
	}
}

// Count returns the number of samples recorded for the strategy.
func (t *LatencyTracker) Count(strategy string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sd, ok := t.digests[strategy]; ok {
		return sd.count
	}
	return 0
}

// Quantile returns the q quantile (0.0-1.0) of the strategy's samples,
// or 0 when no samples were recorded.
func (t *LatencyTracker) Quantile(strategy string, q float64) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	sd, ok := t.digests[strategy]
	if !ok || sd.count == 0 {
		return 0
	}
	return time.Duration(sd.digest.Quantile(q))
}

// Snapshots returns one Snapshot per strategy, sorted by strategy name.
func (t *LatencyTracker) Snapshots() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Snapshot, 0, len(t.digests))
	for name, sd := range t.digests {
		out = append(out, Snapshot{
			Strategy: name,
			Count:    sd.count,
			Min:      sd.min,
			Max:      sd.max,
			P50:      time.Duration(sd.digest.Quantile(0.50)),
			P95:      time.Duration(sd.digest.Quantile(0.95)),
			P99:      time.Duration(sd.digest.Quantile(0.99)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strategy < out[j].Strategy })
	return out
}
