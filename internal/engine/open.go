package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calibench/calibench/internal/metrics"
)

// ErrInvalidRate rejects open-loop runs with a non-positive target rate.
var ErrInvalidRate = errors.New("target rate must be positive")

// dispatchSlack bounds how far the arrival schedule may run ahead of the
// execution gate: up to dispatchSlack×cap requests can be dispatched but not
// yet finished. Accepting ahead of the cap keeps the arrival process faithful
// to the target rate when the server is momentarily saturated; the two gates
// are independent and must stay that way.
const dispatchSlack = 4

// openTick bounds the scheduler sleep between dispatch attempts.
const openTick = time.Millisecond

// OpenOptions configure an open-loop run family.
type OpenOptions struct {
	Rate           float64       // target arrivals per second
	Duration       time.Duration // measured run duration
	ConcurrencyCap int           // hard cap on simultaneously executing requests
	WarmupDuration time.Duration // discarded warmup run at the same rate/cap
	Repeat         int           // measured runs aggregated into the result, >= 1

	// OnRun observes each measured run's summary as it completes. May be
	// nil; presence or absence never changes the returned values.
	OnRun func(run int, s metrics.RunSummary)

	Collector CollectorFactory
}

// RunOpen dispatches requests on a fixed arrival schedule of opt.Rate per
// second for opt.Duration, then drains all in-flight work before summarizing.
// Achieved throughput is successes over the actual wall time, which can
// exceed the nominal duration because of drain time.
func RunOpen(ctx context.Context, req Requester, opt OpenOptions) (metrics.Aggregate, []metrics.RunSummary, error) {
	if opt.Repeat < 1 {
		return metrics.Aggregate{}, nil, ErrInvalidRepeat
	}
	if opt.Rate <= 0 {
		return metrics.Aggregate{}, nil, ErrInvalidRate
	}
	if opt.ConcurrencyCap < 1 {
		opt.ConcurrencyCap = 1
	}
	newCollector := opt.Collector
	if newCollector == nil {
		newCollector = metrics.NewCollector
	}

	if opt.WarmupDuration > 0 {
		openOnce(ctx, req, opt.Rate, opt.WarmupDuration, opt.ConcurrencyCap, newCollector())
	}

	runs := make([]metrics.RunSummary, 0, opt.Repeat)
	for i := 0; i < opt.Repeat; i++ {
		s := openOnce(ctx, req, opt.Rate, opt.Duration, opt.ConcurrencyCap, newCollector())
		if opt.OnRun != nil {
			opt.OnRun(i, s)
		}
		runs = append(runs, s)
	}
	return metrics.AggregateRuns(runs), runs, nil
}

// openOnce runs the clock-driven dispatch loop. A request is launched when
// the schedule is due and fewer than dispatchSlack×cap requests are
// outstanding; each launched request still has to acquire one of cap permits
// before it touches the network. When the schedule falls behind (the
// outstanding gate was full), dispatch catches up back-to-back because the
// next scheduled time only advances on dispatch.
func openOnce(ctx context.Context, req Requester, targetRate float64, duration time.Duration, capacity int, collector *metrics.Collector) metrics.RunSummary {
	interval := time.Duration(float64(time.Second) / targetRate)
	permits := make(chan struct{}, capacity)
	var outstanding int64
	var wg sync.WaitGroup

	start := time.Now()
	next := start
	for ctx.Err() == nil {
		now := time.Now()
		if now.Sub(start) >= duration {
			break
		}
		if !now.Before(next) && atomic.LoadInt64(&outstanding) < int64(dispatchSlack*capacity) {
			atomic.AddInt64(&outstanding, 1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer atomic.AddInt64(&outstanding, -1)
				permits <- struct{}{}
				defer func() { <-permits }()
				latency, err := req.Do(ctx)
				collector.Record(latency, err)
			}()
			next = next.Add(interval)
			continue
		}
		sleep := next.Sub(now)
		if sleep > openTick {
			sleep = openTick
		}
		if sleep > 0 {
			time.Sleep(sleep)
		} else {
			// Overdue but the outstanding gate is full: yield and re-check
			// rather than waiting out a whole tick.
			runtime.Gosched()
		}
	}

	// Every dispatched request completes before the summary; the reported
	// numbers reflect completed work only, never merely dispatched work.
	wg.Wait()

	return collector.Summary(time.Since(start))
}
