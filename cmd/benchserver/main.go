// Command benchserver is a small HTTP target for exercising the bench
// engine locally: constant response body, optional artificial delay and an
// optional server-side rate limit, with Prometheus metrics on a separate
// port.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchserver_requests_total",
		Help: "Requests served, by status code.",
	}, []string{"code"})
	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "benchserver_request_duration_seconds",
		Help:    "Time spent serving a request.",
		Buckets: prometheus.DefBuckets,
	})
)

func main() {
	var (
		host        = flag.String("host", "127.0.0.1", "listen address")
		port        = flag.Int("port", 8000, "listen port")
		delay       = flag.Duration("delay", 0, "artificial per-request delay")
		maxRPS      = flag.Float64("max-rps", 0, "server-side rate limit, 0 disables")
		metricsPort = flag.Int("metrics-port", 9090, "Prometheus metrics port, 0 disables")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var limiter *rate.Limiter
	if *maxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(*maxRPS), int(*maxRPS))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// The client opens a fresh connection per request; close ours too
		// so neither side holds half-open keep-alives.
		w.Header().Set("Connection", "close")

		if limiter != nil && !limiter.Allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintln(w, "rate limited")
			requestsTotal.WithLabelValues("429").Inc()
			requestDuration.Observe(time.Since(start).Seconds())
			return
		}
		if *delay > 0 {
			time.Sleep(*delay)
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "ok")
		requestsTotal.WithLabelValues("200").Inc()
		requestDuration.Observe(time.Since(start).Seconds())
	})

	addr := net.JoinHostPort(*host, fmt.Sprintf("%d", *port))
	server := &http.Server{Addr: addr, Handler: mux}
	server.SetKeepAlivesEnabled(false)

	if *metricsPort > 0 {
		metricsAddr := net.JoinHostPort(*host, fmt.Sprintf("%d", *metricsPort))
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("metrics on http://%s/metrics", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("serving on http://%s (delay=%s max-rps=%.0f)", addr, *delay, *maxRPS)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
