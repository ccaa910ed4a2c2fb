package metrics_test

import (
	"testing"
	"time"

	"github.com/calibench/calibench/internal/metrics"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestPercentileNearestRank(t *testing.T) {
	sorted := make([]time.Duration, 0, 10)
	for i := 1; i <= 10; i++ {
		sorted = append(sorted, ms(i))
	}

	tests := []struct {
		q    float64
		want time.Duration
	}{
		{0, ms(1)},
		{0.5, ms(6)},  // round(0.5*9) = 5
		{0.9, ms(9)},  // round(0.9*9) = 8, no interpolation
		{0.99, ms(10)},
		{1, ms(10)},
	}
	for _, tt := range tests {
		if got := metrics.Percentile(sorted, tt.q); got != tt.want {
			t.Errorf("Percentile(q=%.2f) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestPercentileEdgeCases(t *testing.T) {
	if got := metrics.Percentile(nil, 0.99); got != 0 {
		t.Errorf("empty sample: got %v, want 0", got)
	}
	single := []time.Duration{ms(7)}
	for _, q := range []float64{0, 0.5, 1} {
		if got := metrics.Percentile(single, q); got != ms(7) {
			t.Errorf("single sample q=%.1f: got %v, want 7ms", q, got)
		}
	}
}

func TestSummarizeSortsAndComputes(t *testing.T) {
	latencies := []time.Duration{ms(30), ms(10), ms(20)}
	s := metrics.Summarize(latencies, 1, 2*time.Second)

	if s.Successes != 3 || s.Failures != 1 {
		t.Fatalf("counts = %d/%d, want 3/1", s.Successes, s.Failures)
	}
	if s.Min != ms(10) || s.Max != ms(30) {
		t.Errorf("min/max = %v/%v, want 10ms/30ms", s.Min, s.Max)
	}
	if s.Mean != ms(20) {
		t.Errorf("mean = %v, want 20ms", s.Mean)
	}
	if s.P50 != ms(20) {
		t.Errorf("p50 = %v, want 20ms", s.P50)
	}
	if got, want := s.Throughput, 1.5; got != want {
		t.Errorf("throughput = %v, want %v", got, want)
	}
	for i := 1; i < len(s.Latencies); i++ {
		if s.Latencies[i-1] > s.Latencies[i] {
			t.Fatalf("latencies not sorted: %v", s.Latencies)
		}
	}
}

func TestSummarizeZeroSuccesses(t *testing.T) {
	s := metrics.Summarize(nil, 5, time.Second)
	if s.Successes != 0 || s.Failures != 5 {
		t.Fatalf("counts = %d/%d, want 0/5", s.Successes, s.Failures)
	}
	if s.Throughput != 0 {
		t.Errorf("throughput = %v, want 0", s.Throughput)
	}
	if s.Min != 0 || s.Mean != 0 || s.P50 != 0 || s.P99 != 0 || s.Max != 0 {
		t.Errorf("latency fields should all be zero: %+v", s)
	}
}

func TestAggregateRunsMediansPerField(t *testing.T) {
	runs := []metrics.RunSummary{
		{Throughput: 100, P50: ms(10), P99: ms(50), Failures: 0},
		{Throughput: 300, P50: ms(30), P99: ms(20), Failures: 3},
		{Throughput: 200, P50: ms(20), P99: ms(90), Failures: 0},
	}
	agg := metrics.AggregateRuns(runs)

	if agg.Runs != 3 {
		t.Errorf("runs = %d, want 3", agg.Runs)
	}
	if agg.Throughput != 200 {
		t.Errorf("throughput median = %v, want 200", agg.Throughput)
	}
	if agg.P50Ms != 20 {
		t.Errorf("p50 median = %v, want 20", agg.P50Ms)
	}
	// Medians are taken independently per field, so the p99 median can come
	// from a different run than the p50 median.
	if agg.P99Ms != 50 {
		t.Errorf("p99 median = %v, want 50", agg.P99Ms)
	}
	if agg.MeanErrors != 1 {
		t.Errorf("mean errors = %v, want 1", agg.MeanErrors)
	}
}

func TestAggregateRunsEvenCountAverages(t *testing.T) {
	runs := []metrics.RunSummary{
		{Throughput: 100},
		{Throughput: 200},
	}
	agg := metrics.AggregateRuns(runs)
	if agg.Throughput != 150 {
		t.Errorf("even-count median = %v, want 150", agg.Throughput)
	}
}

func TestAggregateRunsEmpty(t *testing.T) {
	agg := metrics.AggregateRuns(nil)
	if agg != (metrics.Aggregate{}) {
		t.Errorf("empty input should yield zero aggregate, got %+v", agg)
	}
}
