package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/calibench/calibench/internal/metrics"
)

// ErrInvalidRepeat rejects run families with no measured runs.
var ErrInvalidRepeat = errors.New("repeat must be at least 1")

// CollectorFactory produces the collector for each individual run, warmup
// included. Injectable so callers can attach a progress reporter to the
// collector of the run currently in flight.
type CollectorFactory func() *metrics.Collector

// ClosedOptions configure a closed-loop run family.
type ClosedOptions struct {
	Total       int // requests per measured run
	Concurrency int // bounded pool size, never more in flight than this
	Warmup      int // discarded warmup requests before the measured runs
	Repeat      int // measured runs aggregated into the result, >= 1

	// OnRun observes each measured run's summary as it completes. May be
	// nil; presence or absence never changes the returned values.
	OnRun func(run int, s metrics.RunSummary)

	Collector CollectorFactory
}

// RunClosed issues exactly opt.Total requests per run through a pool of
// opt.Concurrency workers, waits for all of them, and repeats opt.Repeat
// times. The warmup batch runs once, at the same concurrency, before the
// first measured run and is excluded from timing and counting. Repeats run
// strictly sequentially. The returned aggregate is the field-wise median
// across the measured runs with the mean failure count.
func RunClosed(ctx context.Context, req Requester, opt ClosedOptions) (metrics.Aggregate, []metrics.RunSummary, error) {
	if opt.Repeat < 1 {
		return metrics.Aggregate{}, nil, ErrInvalidRepeat
	}
	if opt.Concurrency < 1 {
		opt.Concurrency = 1
	}
	newCollector := opt.Collector
	if newCollector == nil {
		newCollector = metrics.NewCollector
	}

	if opt.Warmup > 0 {
		closedOnce(ctx, req, opt.Warmup, opt.Concurrency, newCollector())
	}

	runs := make([]metrics.RunSummary, 0, opt.Repeat)
	for i := 0; i < opt.Repeat; i++ {
		s := closedOnce(ctx, req, opt.Total, opt.Concurrency, newCollector())
		if opt.OnRun != nil {
			opt.OnRun(i, s)
		}
		runs = append(runs, s)
	}
	return metrics.AggregateRuns(runs), runs, nil
}

// closedOnce dispatches total requests across a fixed pool of workers fed by
// an unbuffered jobs channel, so at most concurrency requests are in flight
// at any instant. Wall time spans the whole batch, first dispatch to last
// completion.
func closedOnce(ctx context.Context, req Requester, total, concurrency int, collector *metrics.Collector) metrics.RunSummary {
	jobs := make(chan struct{})
	var wg sync.WaitGroup

	start := time.Now()
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for range jobs {
				latency, err := req.Do(ctx)
				collector.Record(latency, err)
			}
		}()
	}
	for i := 0; i < total; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	return collector.Summary(time.Since(start))
}
