// Command calibench drives synthetic HTTP traffic against a target under
// closed-loop and open-loop workload models, and can calibrate open-loop
// target rates from a closed-loop concurrency sweep.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/calibench/calibench/internal/config"
	"github.com/calibench/calibench/internal/metrics"
	"github.com/calibench/calibench/internal/output"
	"github.com/calibench/calibench/internal/threshold"
	"github.com/calibench/calibench/internal/tracing"
)

// version is overridable at build time with -ldflags "-X main.version=...".
var version = "dev"

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries the state shared across subcommands: global flags, the loaded
// configuration file and the tracing provider.
type app struct {
	global config.GlobalFlags
	file   *config.File
	tracer *tracing.Provider
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "calibench",
		Short:         "HTTP load generation with closed-loop calibration and open-loop replay",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	a.global.Register(root.PersistentFlags())
	root.AddCommand(
		newClosedCmd(a),
		newOpenCmd(a),
		newSweepCmd(a),
		newPresetCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.global.ConfigFile != "" {
		file, err := config.LoadFile(a.global.ConfigFile)
		if err != nil {
			return err
		}
		a.file = file
		if err := config.ApplyFileDefaults(cmd.Flags(), file); err != nil {
			return err
		}
	}

	provider, err := tracing.Init(cmd.Context(), tracing.Config{
		Endpoint: a.global.OTLPEndpoint,
		Protocol: a.global.OTLPProtocol,
	})
	if err != nil {
		return err
	}
	a.tracer = provider
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	return a.tracer.Shutdown(ctx)
}

func (a *app) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return a.tracer.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// newProgress wires a live progress reporter unless quiet; the returned
// factory attaches each run's fresh collector to it.
func (a *app) newProgress(w io.Writer) (*output.ProgressReporter, func() *metrics.Collector) {
	if a.global.Quiet {
		return nil, metrics.NewCollector
	}
	progress := output.NewProgressReporter(progressInterval, w)
	factory := func() *metrics.Collector {
		c := metrics.NewCollector()
		progress.Watch(c)
		return c
	}
	return progress, factory
}

// checkThresholds evaluates the expressions against the final aggregate and
// fails the command when any expression does not hold.
func checkThresholds(w io.Writer, agg metrics.Aggregate, expressions []string) error {
	if len(expressions) == 0 {
		return nil
	}
	results, err := threshold.Evaluate(agg, expressions)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintln(w, r)
	}
	if failed := threshold.Failed(results); failed > 0 {
		return fmt.Errorf("%d threshold(s) failed", failed)
	}
	return nil
}
