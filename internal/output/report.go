// Package output renders run results for humans and for the report sinks.
package output

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/calibench/calibench/internal/engine"
	"github.com/calibench/calibench/internal/metrics"
)

// PrintClosedRunDetail writes the per-run header and latency line for one
// closed-loop run.
func PrintClosedRunDetail(w io.Writer, url string, total, concurrency int, s metrics.RunSummary) {
	fmt.Fprintf(w, "URL: %s\n", url)
	fmt.Fprintf(w, "Total: %d, Concurrency: %d, Errors: %d\n", total, concurrency, s.Failures)
	fmt.Fprintf(w, "Wall time: %.3fs, Throughput: %.1f req/s\n", s.Wall.Seconds(), s.Throughput)
	printLatencyLine(w, s)
}

// PrintOpenRunDetail writes the per-run header and latency line for one
// open-loop run.
func PrintOpenRunDetail(w io.Writer, url string, targetRPS float64, duration time.Duration, cap int, s metrics.RunSummary) {
	fmt.Fprintf(w, "URL: %s\n", url)
	fmt.Fprintf(w, "Mode: open-loop, Target: %.1f rps for %.1fs, Concurrency cap: %d\n",
		targetRPS, duration.Seconds(), cap)
	fmt.Fprintf(w, "Wall time: %.3fs, Achieved: %.1f req/s, Errors: %d\n",
		s.Wall.Seconds(), s.Throughput, s.Failures)
	printLatencyLine(w, s)
}

func printLatencyLine(w io.Writer, s metrics.RunSummary) {
	if s.Successes == 0 {
		return
	}
	fmt.Fprintf(w, "Latency: min=%.2fms avg=%.2fms p50=%.2fms p90=%.2fms p99=%.2fms max=%.2fms\n",
		s.MinMs(), s.MeanMs(), s.P50Ms(), s.P90Ms(), s.P99Ms(), s.MaxMs())
}

// PrintClosedSummary writes the median-of-repeats summary of a closed run
// family.
func PrintClosedSummary(w io.Writer, agg metrics.Aggregate) {
	fmt.Fprintln(w, "=== closed summary (median) ===")
	fmt.Fprintf(w, "Throughput: %.1f req/s\n", agg.Throughput)
	fmt.Fprintf(w, "Latency: p50=%.2fms p90=%.2fms p99=%.2fms\n", agg.P50Ms, agg.P90Ms, agg.P99Ms)
}

// PrintOpenSummary writes the median-of-repeats summary of an open run
// family.
func PrintOpenSummary(w io.Writer, agg metrics.Aggregate) {
	fmt.Fprintln(w, "=== open summary (median) ===")
	fmt.Fprintf(w, "Achieved: %.1f req/s\n", agg.Throughput)
	fmt.Fprintf(w, "Latency: p50=%.2fms p90=%.2fms p99=%.2fms\n", agg.P50Ms, agg.P90Ms, agg.P99Ms)
}

// PrintSweepPoint writes one aligned sweep table row.
func PrintSweepPoint(w io.Writer, p engine.SweepPoint) {
	fmt.Fprintf(w, "c=%4d -> thr=%8.1f rps  p50=%7.2fms  p90=%7.2fms  p99=%7.2fms\n",
		p.Concurrency, p.Result.Throughput, p.Result.P50Ms, p.Result.P90Ms, p.Result.P99Ms)
}

// PrintErrorBreakdown writes failure counts by error type, largest first.
func PrintErrorBreakdown(w io.Writer, breakdown map[string]int) {
	if len(breakdown) == 0 {
		return
	}
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(breakdown))
	for name, count := range breakdown {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	fmt.Fprintln(w, "Errors by type:")
	for _, e := range entries {
		fmt.Fprintf(w, "  %s: %d\n", e.name, e.count)
	}
}
