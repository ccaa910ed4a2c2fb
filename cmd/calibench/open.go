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

func newOpenCmd(a *app) *cobra.Command {
	var f config.OpenFlags
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Dispatch requests at a fixed arrival rate for a fixed duration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.global.ValidateOpen(f); err != nil {
				return err
			}
			tgt, err := target.Parse(a.global.URL)
			if err != nil {
				return err
			}
			req := engine.NewRawRequester(tgt, a.global.Timeout)
			out := cmd.OutOrStdout()

			ctx, span := a.startSpan(cmd.Context(), "bench.open",
				attribute.String("url", a.global.URL),
				attribute.Float64("rps", f.Rate),
				attribute.String("duration", f.Duration.String()),
				attribute.Int("concurrency_cap", f.Concurrency),
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
			agg, _, err := engine.RunOpen(ctx, req, engine.OpenOptions{
				Rate:           f.Rate,
				Duration:       f.Duration,
				ConcurrencyCap: f.Concurrency,
				WarmupDuration: f.Warmup,
				Repeat:         f.Repeat,
				Collector:      collector,
				OnRun: func(run int, s metrics.RunSummary) {
					lastRun = s
					if quiet {
						return
					}
					fmt.Fprintf(out, "\n--- open run %d/%d ---\n", run+1, f.Repeat)
					output.PrintOpenRunDetail(out, a.global.URL, f.Rate, f.Duration, f.Concurrency, s)
				},
			})
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintln(out)
				output.PrintOpenSummary(out, agg)
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
