package engine

import (
	"context"

	"github.com/calibench/calibench/internal/metrics"
)

// SweepPoint pairs a tested concurrency with its aggregated result.
type SweepPoint struct {
	Concurrency int
	Result      metrics.Aggregate
}

// SweepOptions configure a closed-loop sweep across concurrency values.
type SweepOptions struct {
	Concurrencies []int
	Total         int
	Warmup        int
	Repeat        int

	// OnPoint observes each point as it completes, in input order.
	OnPoint func(p SweepPoint)

	Collector CollectorFactory
}

// RunSweep invokes the closed-loop runner once per concurrency value, in
// input order, with per-run detail suppressed. Points share no state: a
// point whose requests all fail still yields a well-formed zero summary and
// later points still run.
func RunSweep(ctx context.Context, req Requester, opt SweepOptions) ([]SweepPoint, error) {
	if opt.Repeat < 1 {
		return nil, ErrInvalidRepeat
	}

	points := make([]SweepPoint, 0, len(opt.Concurrencies))
	for _, concurrency := range opt.Concurrencies {
		agg, _, err := RunClosed(ctx, req, ClosedOptions{
			Total:       opt.Total,
			Concurrency: concurrency,
			Warmup:      opt.Warmup,
			Repeat:      opt.Repeat,
			Collector:   opt.Collector,
		})
		if err != nil {
			return points, err
		}
		point := SweepPoint{Concurrency: concurrency, Result: agg}
		if opt.OnPoint != nil {
			opt.OnPoint(point)
		}
		points = append(points, point)
	}
	return points, nil
}
