package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calibench/calibench/internal/metrics"
)

// ProgressReporter displays a one-line live view of the run in flight. The
// watched collector can be swapped between runs so a multi-run family keeps
// a single reporter.
type ProgressReporter struct {
	mu       sync.Mutex
	source   *metrics.Collector
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a reporter updating at the given interval.
func NewProgressReporter(interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Watch points the reporter at the collector of the run now in flight.
func (p *ProgressReporter) Watch(c *metrics.Collector) {
	p.mu.Lock()
	p.source = c
	p.mu.Unlock()
}

// Start begins updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	go p.run()
}

// Stop halts updates and waits for the reporter goroutine to exit.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			p.mu.Lock()
			source := p.source
			p.mu.Unlock()
			if source == nil {
				continue
			}
			snap := source.Snapshot()
			fmt.Fprintf(p.writer, "\rRequests: %d | Failures: %d | RPS: %.1f | p50 %s | p99 %s",
				snap.Total, snap.Failures, snap.RPS,
				snap.P50.Round(10*time.Microsecond), snap.P99.Round(10*time.Microsecond))
		case <-p.done:
			return
		}
	}
}
