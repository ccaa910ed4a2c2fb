package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calibench/calibench/internal/config"
	"github.com/calibench/calibench/internal/engine"
	"github.com/calibench/calibench/internal/output"
	"github.com/calibench/calibench/internal/target"
)

func newSweepCmd(a *app) *cobra.Command {
	var f config.SweepFlags
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run closed-loop medians across an ordered list of concurrencies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			concurrencies, err := a.global.ValidateSweep(f)
			if err != nil {
				return err
			}
			tgt, err := target.Parse(a.global.URL)
			if err != nil {
				return err
			}
			req := engine.NewRawRequester(tgt, a.global.Timeout)
			out := cmd.OutOrStdout()

			ctx, span := a.startSpan(cmd.Context(), "bench.sweep",
				attribute.String("url", a.global.URL),
				attribute.Int("total", f.Total),
				attribute.IntSlice("concurrencies", concurrencies),
				attribute.Int("repeat", f.Repeat),
			)
			defer span.End()

			quiet := a.global.Quiet
			if !quiet {
				fmt.Fprintln(out, "=== sweep (closed-loop medians) ===")
			}
			_, err = engine.RunSweep(ctx, req, engine.SweepOptions{
				Concurrencies: concurrencies,
				Total:         f.Total,
				Warmup:        f.Warmup,
				Repeat:        f.Repeat,
				OnPoint: func(p engine.SweepPoint) {
					if !quiet {
						output.PrintSweepPoint(out, p)
					}
				},
			})
			return err
		},
	}
	f.Register(cmd.Flags())
	return cmd
}
