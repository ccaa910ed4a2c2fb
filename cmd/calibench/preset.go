package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calibench/calibench/internal/config"
	"github.com/calibench/calibench/internal/engine"
	"github.com/calibench/calibench/internal/metrics"
	"github.com/calibench/calibench/internal/output"
	"github.com/calibench/calibench/internal/preset"
	"github.com/calibench/calibench/internal/target"
)

func newPresetCmd(a *app) *cobra.Command {
	var f config.PresetFlags
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Calibrate via a closed-loop sweep, then run open-loop targets around capacity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.global.ValidatePreset(f); err != nil {
				return err
			}
			tgt, err := target.Parse(a.global.URL)
			if err != nil {
				return err
			}
			req := engine.NewRawRequester(tgt, a.global.Timeout)
			out := cmd.OutOrStdout()

			ctx, span := a.startSpan(cmd.Context(), "bench.preset",
				attribute.String("url", a.global.URL),
				attribute.String("profile", f.Profile),
			)
			defer span.End()

			quiet := a.global.Quiet
			narrate := io.Writer(out)
			if quiet {
				narrate = io.Discard
			}

			var overrides map[string]preset.Override
			if a.file != nil {
				overrides = a.file.Presets
			}

			report, err := preset.Run(ctx, req, preset.Options{
				Profile:   f.Profile,
				URL:       a.global.URL,
				Overrides: overrides,
				Out:       narrate,
				Hooks: preset.Hooks{
					SweepPoint: func(p engine.SweepPoint) {
						if !quiet {
							output.PrintSweepPoint(out, p)
						}
					},
					OpenRun: func(targetRPS float64, run int, s metrics.RunSummary) {
						if quiet {
							return
						}
						fmt.Fprintf(out, "run %d: achieved %.1f rps, errors %d\n",
							run+1, s.Throughput, s.Failures)
						if s.Successes > 0 {
							fmt.Fprintf(out, "  latency: p50=%.2fms p90=%.2fms p99=%.2fms\n",
								s.P50Ms(), s.P90Ms(), s.P99Ms())
						}
					},
				},
			})
			if err != nil {
				return err
			}

			csvPath := f.CSVPath
			if csvPath == "" {
				csvPath = output.DefaultCSVPath(f.Profile)
			}
			if err := output.WriteCSVReport(csvPath, report.Rows); err != nil {
				return err
			}
			if f.DBPath != "" {
				if err := output.WriteSQLiteReport(f.DBPath, report.Rows); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "\nSaved preset CSV to %s\n", csvPath)
			fmt.Fprintf(out, "Best closed-loop: %.1f rps at concurrency %d\n",
				report.CalibratedRPS, report.BestConcurrency)
			fmt.Fprintf(out, "Open-loop targets tested: %v rps with cap %d\n",
				roundTargets(report.OpenTargets), report.OpenCap)
			return nil
		},
	}
	f.Register(cmd.Flags())
	return cmd
}

func roundTargets(targets []float64) []int {
	out := make([]int, len(targets))
	for i, t := range targets {
		out[i] = int(t)
	}
	return out
}
