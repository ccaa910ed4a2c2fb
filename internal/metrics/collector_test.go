package metrics_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calibench/calibench/internal/metrics"
)

func TestCollectorConcurrentRecord(t *testing.T) {
	c := metrics.NewCollector()

	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if i%10 == 0 {
					c.Record(0, errors.New("boom"))
				} else {
					c.Record(5*time.Millisecond, nil)
				}
			}
		}()
	}
	wg.Wait()

	s := c.Summary(time.Second)
	wantFailures := workers * perWorker / 10
	wantSuccesses := workers*perWorker - wantFailures
	if s.Successes != wantSuccesses {
		t.Errorf("successes = %d, want %d", s.Successes, wantSuccesses)
	}
	if s.Failures != wantFailures {
		t.Errorf("failures = %d, want %d", s.Failures, wantFailures)
	}
}

func TestCollectorSnapshot(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(10*time.Millisecond, nil)
	c.Record(20*time.Millisecond, nil)
	c.Record(0, errors.New("refused"))

	snap := c.Snapshot()
	if snap.Total != 3 || snap.Successes != 2 || snap.Failures != 1 {
		t.Errorf("snapshot counts = %+v, want total 3, successes 2, failures 1", snap)
	}
	if snap.P50 <= 0 {
		t.Errorf("snapshot p50 = %v, want > 0", snap.P50)
	}
}

func TestCollectorErrorBreakdown(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(0, errors.New("a"))
	c.Record(0, errors.New("b"))
	c.Record(time.Millisecond, nil)

	breakdown := c.ErrorBreakdown()
	if got := breakdown["*errors.errorString"]; got != 2 {
		t.Errorf("breakdown[*errors.errorString] = %d, want 2", got)
	}
}

func TestCollectorSummaryZeroRecords(t *testing.T) {
	c := metrics.NewCollector()
	s := c.Summary(time.Second)
	if s.Successes != 0 || s.Failures != 0 || s.Throughput != 0 {
		t.Errorf("empty collector summary = %+v, want zeros", s)
	}
}
