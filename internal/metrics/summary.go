package metrics

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// RunSummary is the outcome of one measured run. Latency statistics cover
// successful requests only; a run with zero successes is still well-formed,
// with every latency field zero.
type RunSummary struct {
	Successes  int
	Failures   int
	Wall       time.Duration
	Throughput float64 // successes per wall-clock second

	Min  time.Duration
	Mean time.Duration
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration

	// Latencies holds the sorted successful samples the percentiles were
	// computed from, kept for histogram rendering.
	Latencies []time.Duration
}

func (s RunSummary) MinMs() float64  { return durationMs(s.Min) }
func (s RunSummary) MeanMs() float64 { return durationMs(s.Mean) }
func (s RunSummary) P50Ms() float64  { return durationMs(s.P50) }
func (s RunSummary) P90Ms() float64  { return durationMs(s.P90) }
func (s RunSummary) P99Ms() float64  { return durationMs(s.P99) }
func (s RunSummary) MaxMs() float64  { return durationMs(s.Max) }

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Percentile returns the nearest-rank percentile of an ascending-sorted
// sample: the element at round(q*(n-1)). No interpolation, so the result is
// always an observed sample. Empty input yields zero.
func Percentile(sorted []time.Duration, q float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(q*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Summarize reduces one run's samples to its summary. The latency slice is
// sorted in place and retained in the result.
func Summarize(latencies []time.Duration, failures int, wall time.Duration) RunSummary {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	s := RunSummary{
		Successes: len(latencies),
		Failures:  failures,
		Wall:      wall,
		Latencies: latencies,
	}
	if wall > 0 {
		s.Throughput = float64(s.Successes) / wall.Seconds()
	}
	if s.Successes == 0 {
		return s
	}

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	s.Min = latencies[0]
	s.Max = latencies[len(latencies)-1]
	s.Mean = sum / time.Duration(len(latencies))
	s.P50 = Percentile(latencies, 0.50)
	s.P90 = Percentile(latencies, 0.90)
	s.P99 = Percentile(latencies, 0.99)
	return s
}

// Aggregate is the field-wise median of a family of repeated runs, with the
// failure count averaged instead.
type Aggregate struct {
	Runs       int
	Throughput float64
	MinMs      float64
	MeanMs     float64
	P50Ms      float64
	P90Ms      float64
	P99Ms      float64
	MaxMs      float64
	MeanErrors float64
}

// AggregateRuns reduces repeated runs to one aggregate. Each latency and
// throughput field is the median across runs, taken independently per field;
// errors are averaged so intermittent failures stay visible.
func AggregateRuns(runs []RunSummary) Aggregate {
	if len(runs) == 0 {
		return Aggregate{}
	}

	failures := make([]float64, len(runs))
	for i, r := range runs {
		failures[i] = float64(r.Failures)
	}
	meanErrors, _ := stats.Mean(failures)

	return Aggregate{
		Runs:       len(runs),
		Throughput: medianField(runs, func(r RunSummary) float64 { return r.Throughput }),
		MinMs:      medianField(runs, RunSummary.MinMs),
		MeanMs:     medianField(runs, RunSummary.MeanMs),
		P50Ms:      medianField(runs, RunSummary.P50Ms),
		P90Ms:      medianField(runs, RunSummary.P90Ms),
		P99Ms:      medianField(runs, RunSummary.P99Ms),
		MaxMs:      medianField(runs, RunSummary.MaxMs),
		MeanErrors: meanErrors,
	}
}

func medianField(runs []RunSummary, field func(RunSummary) float64) float64 {
	values := make([]float64, len(runs))
	for i, r := range runs {
		values[i] = field(r)
	}
	m, err := stats.Median(values)
	if err != nil {
		return 0
	}
	return m
}
