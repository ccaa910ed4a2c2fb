// Package preset runs the calibration workflow: a closed-loop sweep to find
// the best-performing concurrency, then open-loop runs at target rates
// derived from that capacity, all recorded as report rows.
package preset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/calibench/calibench/internal/engine"
	"github.com/calibench/calibench/internal/metrics"
)

// Report row phases.
const (
	PhaseClosedSweep = "closed_sweep"
	PhaseOpenLoop    = "open_loop"
)

const (
	// rateFloor keeps derived open-loop targets from being negligible when
	// the calibrated capacity is very low.
	rateFloor = 50.0
	// capFactor sizes the open-loop concurrency cap generously above the
	// best closed-loop concurrency so the cap itself does not limit
	// throughput near capacity.
	capFactor = 2.5
	// maxOpenCap protects the client host regardless of calibration.
	maxOpenCap = 2000
)

// Row is one report-sink record: a sweep point or an open-loop target.
// Fields not applicable to the row's phase are ignored by the sinks.
type Row struct {
	Phase           string
	Profile         string
	URL             string
	Timestamp       string
	Concurrency     int     // sweep: tested concurrency; open: concurrency cap
	TotalRequests   int     // sweep only
	OpenDurationSec float64 // open only
	Warmup          float64 // warmup requests (sweep) or seconds (open)
	Repeat          int
	OpenTargetRPS   float64 // open only
	ThroughputRPS   float64
	P50Ms           float64
	P90Ms           float64
	P99Ms           float64
	Errors          float64
}

// Report is the outcome of a full preset orchestration.
type Report struct {
	Profile         string
	URL             string
	BestConcurrency int
	CalibratedRPS   float64
	OpenTargets     []float64
	OpenCap         int
	Rows            []Row
}

// Hooks let the caller surface per-point and per-run detail while the
// orchestration is in flight. Either hook may be nil.
type Hooks struct {
	SweepPoint func(p engine.SweepPoint)
	OpenRun    func(targetRPS float64, run int, s metrics.RunSummary)
}

// Options configure one preset invocation.
type Options struct {
	Profile   string
	URL       string // recorded in report rows; the requester already targets it
	Overrides map[string]Override
	Timestamp string // row timestamp, defaults to now
	Out       io.Writer
	Hooks     Hooks
	Collector engine.CollectorFactory
}

// DeriveTargets computes the open-loop target rates bracketing a calibrated
// capacity: under, near and over, each floored at 50 rps.
func DeriveTargets(calibratedRPS float64) []float64 {
	targets := make([]float64, 0, 3)
	for _, factor := range []float64{0.5, 0.9, 1.1} {
		target := factor * calibratedRPS
		if target < rateFloor {
			target = rateFloor
		}
		targets = append(targets, target)
	}
	return targets
}

// BestPoint picks the sweep point with the highest median throughput. Ties
// resolve to the earliest point in sweep order.
func BestPoint(points []engine.SweepPoint) engine.SweepPoint {
	best := points[0]
	for _, p := range points[1:] {
		if p.Result.Throughput > best.Result.Throughput {
			best = p
		}
	}
	return best
}

// OpenCap sizes the concurrency cap for the derived open-loop runs from the
// best closed-loop concurrency.
func OpenCap(bestConcurrency int) int {
	capacity := int(capFactor * float64(bestConcurrency))
	if capacity > maxOpenCap {
		capacity = maxOpenCap
	}
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// Run executes the calibration sweep, picks the best concurrency by median
// throughput (ties to the first encountered), then runs the derived
// open-loop targets sequentially. One row is emitted per sweep point and per
// open-loop target, in that order.
func Run(ctx context.Context, req engine.Requester, opt Options) (*Report, error) {
	prof, err := Resolve(opt.Profile, opt.Overrides)
	if err != nil {
		return nil, err
	}
	if len(prof.Closed.Concurrencies) == 0 {
		return nil, errors.New("preset: empty concurrency list")
	}
	out := opt.Out
	if out == nil {
		out = io.Discard
	}
	timestamp := opt.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format("2006-01-02T15:04:05")
	}

	fmt.Fprintln(out, "=== sweep (closed-loop medians) ===")
	points, err := engine.RunSweep(ctx, req, engine.SweepOptions{
		Concurrencies: prof.Closed.Concurrencies,
		Total:         prof.Closed.TotalPerC,
		Warmup:        prof.Closed.Warmup,
		Repeat:        prof.Closed.Repeat,
		OnPoint:       opt.Hooks.SweepPoint,
		Collector:     opt.Collector,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{Profile: opt.Profile, URL: opt.URL}
	for _, p := range points {
		report.Rows = append(report.Rows, Row{
			Phase:         PhaseClosedSweep,
			Profile:       opt.Profile,
			URL:           opt.URL,
			Timestamp:     timestamp,
			Concurrency:   p.Concurrency,
			TotalRequests: prof.Closed.TotalPerC,
			Warmup:        float64(prof.Closed.Warmup),
			Repeat:        prof.Closed.Repeat,
			ThroughputRPS: p.Result.Throughput,
			P50Ms:         p.Result.P50Ms,
			P90Ms:         p.Result.P90Ms,
			P99Ms:         p.Result.P99Ms,
			Errors:        p.Result.MeanErrors,
		})
	}

	best := BestPoint(points)
	report.BestConcurrency = best.Concurrency
	report.CalibratedRPS = best.Result.Throughput
	report.OpenTargets = DeriveTargets(best.Result.Throughput)
	report.OpenCap = OpenCap(best.Concurrency)

	fmt.Fprintln(out, "\n=== preset: open-loop around calibrated capacity ===")
	fmt.Fprintf(out, "Calibrated from closed-loop: T*=%.1f rps at C*=%d\n",
		report.CalibratedRPS, report.BestConcurrency)

	openDuration := time.Duration(prof.Open.DurationSec * float64(time.Second))
	openWarmup := time.Duration(prof.Open.WarmupSec * float64(time.Second))
	for _, targetRPS := range report.OpenTargets {
		fmt.Fprintf(out, "\n--- open target %.0f rps for %.0fs (cap %d) ---\n",
			targetRPS, prof.Open.DurationSec, report.OpenCap)

		rps := targetRPS
		agg, _, err := engine.RunOpen(ctx, req, engine.OpenOptions{
			Rate:           rps,
			Duration:       openDuration,
			ConcurrencyCap: report.OpenCap,
			WarmupDuration: openWarmup,
			Repeat:         prof.Closed.Repeat,
			OnRun: func(run int, s metrics.RunSummary) {
				if opt.Hooks.OpenRun != nil {
					opt.Hooks.OpenRun(rps, run, s)
				}
			},
			Collector: opt.Collector,
		})
		if err != nil {
			return nil, err
		}

		report.Rows = append(report.Rows, Row{
			Phase:           PhaseOpenLoop,
			Profile:         opt.Profile,
			URL:             opt.URL,
			Timestamp:       timestamp,
			Concurrency:     report.OpenCap,
			OpenDurationSec: prof.Open.DurationSec,
			Warmup:          prof.Open.WarmupSec,
			Repeat:          prof.Closed.Repeat,
			OpenTargetRPS:   targetRPS,
			ThroughputRPS:   agg.Throughput,
			P50Ms:           agg.P50Ms,
			P90Ms:           agg.P90Ms,
			P99Ms:           agg.P99Ms,
			Errors:          agg.MeanErrors,
		})
	}

	return report, nil
}
