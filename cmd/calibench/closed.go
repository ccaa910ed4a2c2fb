package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calibench/calibench/internal/config"
	"github.com/calibench/calibench/internal/engine"
	"github.com/calibench/calibench/internal/metrics"
	"github.com/calibench/calibench/internal/output"
	"github.com/calibench/calibench/internal/target"
)

func newClosedCmd(a *app) *cobra.Command {
	var f config.ClosedFlags
	cmd := &cobra.Command{
		Use:   "closed",
		Short: "Run a fixed number of requests through a bounded concurrency pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.global.ValidateClosed(f); err != nil {
				return err
			}
			tgt, err := target.Parse(a.global.URL)
			if err != nil {
				return err
			}
			req := engine.NewRawRequester(tgt, a.global.Timeout)
			out := cmd.OutOrStdout()

			ctx, span := a.startSpan(cmd.Context(), "bench.closed",
				attribute.String("url", a.global.URL),
				attribute.Int("total", f.Total),
				attribute.Int("concurrency", f.Concurrency),
				attribute.Int("repeat", f.Repeat),
			)
			defer span.End()

			quiet := a.global.Quiet
			progress, collector := a.newProgress(out)
			if progress != nil {
				progress.Start()
				defer func() {
					progress.Stop()
					fmt.Fprintln(out)
				}()
			}

			var lastRun metrics.RunSummary
			agg, _, err := engine.RunClosed(ctx, req, engine.ClosedOptions{
				Total:       f.Total,
				Concurrency: f.Concurrency,
				Warmup:      f.Warmup,
				Repeat:      f.Repeat,
				Collector:   collector,
				OnRun: func(run int, s metrics.RunSummary) {
					lastRun = s
					if quiet {
						return
					}
					fmt.Fprintf(out, "\n--- closed run %d/%d ---\n", run+1, f.Repeat)
					output.PrintClosedRunDetail(out, a.global.URL, f.Total, f.Concurrency, s)
				},
			})
			if err != nil {
				return err
			}

			if !quiet {
				output.PrintClosedSummary(out, agg)
			}
			if f.Hist {
				if err := output.PrintHistogram(out, lastRun.Latencies); err != nil {
					return err
				}
			}
			return checkThresholds(out, agg, f.Thresholds)
		},
	}
	f.Register(cmd.Flags())
	return cmd
}
