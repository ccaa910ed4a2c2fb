package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calibench/calibench/internal/engine"
	"github.com/calibench/calibench/internal/metrics"
)

// fakeRequester counts calls and tracks the in-flight high-water mark.
type fakeRequester struct {
	calls    int64
	inFlight int64
	maxSeen  int64
	latency  time.Duration
	err      error
}

func (f *fakeRequester) Do(ctx context.Context) (time.Duration, error) {
	atomic.AddInt64(&f.calls, 1)
	cur := atomic.AddInt64(&f.inFlight, 1)
	for {
		max := atomic.LoadInt64(&f.maxSeen)
		if cur <= max || atomic.CompareAndSwapInt64(&f.maxSeen, max, cur) {
			break
		}
	}
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	atomic.AddInt64(&f.inFlight, -1)
	if f.err != nil {
		return 0, f.err
	}
	return f.latency, nil
}

func TestRunClosedIssuesExactlyTotal(t *testing.T) {
	req := &fakeRequester{latency: time.Millisecond}
	agg, runs, err := engine.RunClosed(context.Background(), req, engine.ClosedOptions{
		Total:       50,
		Concurrency: 5,
		Repeat:      1,
	})
	if err != nil {
		t.Fatalf("RunClosed: %v", err)
	}
	if got := atomic.LoadInt64(&req.calls); got != 50 {
		t.Errorf("requests issued = %d, want 50", got)
	}
	if len(runs) != 1 || runs[0].Successes != 50 || runs[0].Failures != 0 {
		t.Errorf("run summary = %+v, want 50 successes, 0 failures", runs[0])
	}
	if agg.Runs != 1 || agg.MeanErrors != 0 {
		t.Errorf("aggregate = %+v, want 1 run, 0 errors", agg)
	}
}

func TestRunClosedBoundsConcurrency(t *testing.T) {
	req := &fakeRequester{latency: 2 * time.Millisecond}
	_, _, err := engine.RunClosed(context.Background(), req, engine.ClosedOptions{
		Total:       100,
		Concurrency: 4,
		Repeat:      1,
	})
	if err != nil {
		t.Fatalf("RunClosed: %v", err)
	}
	if max := atomic.LoadInt64(&req.maxSeen); max > 4 {
		t.Errorf("max in-flight = %d, exceeds concurrency bound 4", max)
	}
}

func TestRunClosedWarmupExcluded(t *testing.T) {
	req := &fakeRequester{}
	_, runs, err := engine.RunClosed(context.Background(), req, engine.ClosedOptions{
		Total:       10,
		Concurrency: 2,
		Warmup:      5,
		Repeat:      2,
	})
	if err != nil {
		t.Fatalf("RunClosed: %v", err)
	}
	// Warmup runs once before the measured runs and is not counted in them.
	if got := atomic.LoadInt64(&req.calls); got != 25 {
		t.Errorf("requests issued = %d, want 25 (5 warmup + 2x10)", got)
	}
	for i, r := range runs {
		if r.Successes != 10 {
			t.Errorf("run %d successes = %d, want 10", i, r.Successes)
		}
	}
}

func TestRunClosedCountsFailures(t *testing.T) {
	req := &fakeRequester{err: errors.New("connection refused")}
	agg, runs, err := engine.RunClosed(context.Background(), req, engine.ClosedOptions{
		Total:       20,
		Concurrency: 4,
		Repeat:      1,
	})
	if err != nil {
		t.Fatalf("RunClosed: %v", err)
	}
	if runs[0].Successes != 0 || runs[0].Failures != 20 {
		t.Errorf("run = %+v, want 0 successes, 20 failures", runs[0])
	}
	if agg.MeanErrors != 20 {
		t.Errorf("mean errors = %v, want 20", agg.MeanErrors)
	}
}

func TestRunClosedRejectsZeroRepeat(t *testing.T) {
	_, _, err := engine.RunClosed(context.Background(), &fakeRequester{}, engine.ClosedOptions{
		Total:       10,
		Concurrency: 1,
		Repeat:      0,
	})
	if !errors.Is(err, engine.ErrInvalidRepeat) {
		t.Errorf("error = %v, want ErrInvalidRepeat", err)
	}
}

func TestRunClosedOnRunObservesEachRun(t *testing.T) {
	var seen []int
	_, _, err := engine.RunClosed(context.Background(), &fakeRequester{}, engine.ClosedOptions{
		Total:       5,
		Concurrency: 1,
		Repeat:      3,
		OnRun: func(run int, s metrics.RunSummary) {
			seen = append(seen, run)
		},
	})
	if err != nil {
		t.Fatalf("RunClosed: %v", err)
	}
	if len(seen) != 3 || seen[0] != 0 || seen[2] != 2 {
		t.Errorf("OnRun calls = %v, want [0 1 2]", seen)
	}
}
