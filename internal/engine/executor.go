// Package engine issues requests against a target under the two workload
// models: closed-loop (fixed count, bounded concurrency) and open-loop
// (fixed arrival rate, capped in-flight concurrency).
package engine

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/calibench/calibench/internal/target"
)

// Requester executes one request and reports its latency. A non-nil error
// marks the request as failed; the engine retains no further detail about
// the cause.
type Requester interface {
	Do(ctx context.Context) (time.Duration, error)
}

const readChunkSize = 64 << 10

// RawRequester replays a fixed HTTP/1.1 GET over a fresh TCP connection per
// call and relies on the peer closing the connection to delimit the response.
// No connection reuse, by design: the measurement is the end-to-end cost of a
// one-shot client, connection setup included.
type RawRequester struct {
	target  *target.Target
	timeout time.Duration
	dialer  net.Dialer
}

func NewRawRequester(t *target.Target, timeout time.Duration) *RawRequester {
	return &RawRequester{
		target:  t,
		timeout: timeout,
		dialer:  net.Dialer{Timeout: timeout},
	}
}

// Do measures wall time from just before connection establishment until the
// peer half-close is observed. Connect, write and each individual read are
// bounded by the configured timeout, so a server that never closes the
// connection fails the request instead of pinning a concurrency slot.
func (r *RawRequester) Do(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	conn, err := r.dialer.DialContext(ctx, "tcp", r.target.Addr())
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(r.timeout)); err != nil {
		return 0, err
	}
	if _, err := conn.Write(r.target.Request()); err != nil {
		return 0, err
	}

	buf := make([]byte, readChunkSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
		_, err := conn.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	return time.Since(start), nil
}
