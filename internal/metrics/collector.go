// Package metrics accumulates per-request outcomes and reduces them to the
// run summaries the runners and orchestrators report.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records the outcomes of a single run in a thread-safe manner.
// It keeps every successful latency sample so the end-of-run summary can use
// exact nearest-rank percentiles, and additionally feeds an HdrHistogram used
// for cheap point-in-time snapshots while the run is still in flight.
type Collector struct {
	mu           sync.Mutex
	latencies    []time.Duration
	failures     int
	errorsByType map[string]int
	hist         *hdrhistogram.Histogram
	start        time.Time
}

func NewCollector() *Collector {
	// Live percentiles tracked from 1µs up to 60s at 3 significant figures.
	return &Collector{
		errorsByType: make(map[string]int),
		hist:         hdrhistogram.New(1, 60_000_000, 3),
		start:        time.Now(),
	}
}

// Record stores one request outcome. A nil error is a success with the given
// latency; any non-nil error counts as a failure regardless of cause.
func (c *Collector) Record(latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.failures++
		name := fmt.Sprintf("%T", err)
		if len(name) > 30 {
			name = name[len(name)-30:]
		}
		c.errorsByType[name]++
		return
	}

	c.latencies = append(c.latencies, latency)
	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// Snapshot is a cheap in-flight view for progress reporting. Its percentiles
// come from the histogram and are approximate; the run's reported summary is
// computed from the raw samples instead.
type Snapshot struct {
	Total     int
	Successes int
	Failures  int
	RPS       float64
	P50       time.Duration
	P99       time.Duration
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Successes: len(c.latencies), Failures: c.failures}
	snap.Total = snap.Successes + snap.Failures
	if elapsed := time.Since(c.start); elapsed > 0 && snap.Total > 0 {
		snap.RPS = float64(snap.Total) / elapsed.Seconds()
	}
	if c.hist.TotalCount() > 0 {
		snap.P50 = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P99 = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	return snap
}

// ErrorBreakdown returns failure counts keyed by error type. Display only;
// the reported errors field stays the undifferentiated total.
func (c *Collector) ErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.errorsByType))
	for k, v := range c.errorsByType {
		out[k] = v
	}
	return out
}

// Summary finalizes the run with the measured wall time. The collector must
// not be recorded to afterwards.
func (c *Collector) Summary(wall time.Duration) RunSummary {
	c.mu.Lock()
	latencies := c.latencies
	failures := c.failures
	c.mu.Unlock()

	return Summarize(latencies, failures, wall)
}
