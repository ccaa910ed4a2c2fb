// Package config owns the operator-facing surface: flag registration,
// validation and the optional configuration file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/calibench/calibench/internal/preset"
)

// ValidationError aggregates every problem found in one validation pass so
// the operator sees them all at once.
type ValidationError struct {
	issues []string
}

func (e *ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return "invalid configuration: " + strings.Join(e.issues, "; ")
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.issues = append(e.issues, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.issues) == 0 {
		return nil
	}
	return e
}

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	URL          string
	Timeout      time.Duration
	Quiet        bool
	ConfigFile   string
	OTLPEndpoint string
	OTLPProtocol string
}

func (f *GlobalFlags) Register(flags *pflag.FlagSet) {
	flags.StringVar(&f.URL, "url", "http://127.0.0.1:8000/", "Target URL (plain http only)")
	flags.DurationVar(&f.Timeout, "timeout", 5*time.Second, "Per-request timeout, applied to connect and to each read")
	flags.BoolVarP(&f.Quiet, "quiet", "q", false, "Suppress progress and per-run detail output")
	flags.StringVar(&f.ConfigFile, "config", "", "Path to configuration file (JSON or YAML)")
	flags.StringVar(&f.OTLPEndpoint, "otlp-endpoint", "", "OTLP endpoint for run spans (empty disables tracing)")
	flags.StringVar(&f.OTLPProtocol, "otlp-protocol", "grpc", "OTLP transport: grpc or http")
}

func (f *GlobalFlags) validate(verr *ValidationError) {
	if strings.TrimSpace(f.URL) == "" {
		verr.add("url is required")
	}
	if f.Timeout <= 0 {
		verr.add("timeout must be positive")
	}
	if f.OTLPProtocol != "grpc" && f.OTLPProtocol != "http" {
		verr.add("otlp-protocol must be grpc or http, got %q", f.OTLPProtocol)
	}
}

// ClosedFlags configure the closed subcommand.
type ClosedFlags struct {
	Total       int
	Concurrency int
	Warmup      int
	Repeat      int
	Hist        bool
	Thresholds  []string
}

func (f *ClosedFlags) Register(flags *pflag.FlagSet) {
	flags.IntVarP(&f.Total, "total", "n", 1000, "Requests per measured run")
	flags.IntVarP(&f.Concurrency, "concurrency", "c", 100, "Bounded concurrency pool size")
	flags.IntVar(&f.Warmup, "warmup", 0, "Warmup requests before the measured runs (discarded)")
	flags.IntVar(&f.Repeat, "repeat", 1, "Measured runs aggregated into the median summary")
	flags.BoolVar(&f.Hist, "hist", false, "Print a latency histogram of the last run")
	flags.StringSliceVar(&f.Thresholds, "threshold", nil, "Pass/fail expression over the aggregate, e.g. 'p99_ms < 250' (repeatable)")
}

func (g *GlobalFlags) ValidateClosed(f ClosedFlags) error {
	verr := &ValidationError{}
	g.validate(verr)
	if f.Total < 1 {
		verr.add("total must be at least 1")
	}
	if f.Concurrency < 1 {
		verr.add("concurrency must be at least 1")
	}
	if f.Warmup < 0 {
		verr.add("warmup cannot be negative")
	}
	if f.Repeat < 1 {
		verr.add("repeat must be at least 1")
	}
	return verr.orNil()
}

// OpenFlags configure the open subcommand.
type OpenFlags struct {
	Rate        float64
	Duration    time.Duration
	Concurrency int
	Warmup      time.Duration
	Repeat      int
	Hist        bool
	Thresholds  []string
}

func (f *OpenFlags) Register(flags *pflag.FlagSet) {
	flags.Float64Var(&f.Rate, "rps", 1000, "Target arrival rate in requests per second")
	flags.DurationVarP(&f.Duration, "duration", "d", 10*time.Second, "Measured run duration")
	flags.IntVarP(&f.Concurrency, "concurrency", "c", 500, "In-flight concurrency cap")
	flags.DurationVar(&f.Warmup, "warmup", 0, "Warmup run duration at the same rate and cap (discarded)")
	flags.IntVar(&f.Repeat, "repeat", 1, "Measured runs aggregated into the median summary")
	flags.BoolVar(&f.Hist, "hist", false, "Print a latency histogram of the last run")
	flags.StringSliceVar(&f.Thresholds, "threshold", nil, "Pass/fail expression over the aggregate (repeatable)")
}

func (g *GlobalFlags) ValidateOpen(f OpenFlags) error {
	verr := &ValidationError{}
	g.validate(verr)
	if f.Rate <= 0 {
		verr.add("rps must be positive")
	}
	if f.Duration <= 0 {
		verr.add("duration must be positive")
	}
	if f.Concurrency < 1 {
		verr.add("concurrency cap must be at least 1")
	}
	if f.Warmup < 0 {
		verr.add("warmup cannot be negative")
	}
	if f.Repeat < 1 {
		verr.add("repeat must be at least 1")
	}
	return verr.orNil()
}

// SweepFlags configure the sweep subcommand.
type SweepFlags struct {
	Total         int
	Concurrencies string
	Warmup        int
	Repeat        int
}

func (f *SweepFlags) Register(flags *pflag.FlagSet) {
	flags.IntVarP(&f.Total, "total", "n", 1000, "Requests per concurrency point")
	flags.StringVar(&f.Concurrencies, "concurrencies", "1,2,5,10,20,50,100,200", "Comma-separated concurrency values, tested in order")
	flags.IntVar(&f.Warmup, "warmup", 0, "Warmup requests per point (discarded)")
	flags.IntVar(&f.Repeat, "repeat", 1, "Runs per point aggregated into medians")
}

func (g *GlobalFlags) ValidateSweep(f SweepFlags) ([]int, error) {
	verr := &ValidationError{}
	g.validate(verr)
	if f.Total < 1 {
		verr.add("total must be at least 1")
	}
	if f.Warmup < 0 {
		verr.add("warmup cannot be negative")
	}
	if f.Repeat < 1 {
		verr.add("repeat must be at least 1")
	}
	concurrencies, err := ParseConcurrencies(f.Concurrencies)
	if err != nil {
		verr.add("%v", err)
	}
	return concurrencies, verr.orNil()
}

// PresetFlags configure the preset subcommand.
type PresetFlags struct {
	Profile string
	CSVPath string
	DBPath  string
}

func (f *PresetFlags) Register(flags *pflag.FlagSet) {
	flags.StringVar(&f.Profile, "profile", "standard", "Preset profile: smoke, standard or stress")
	flags.StringVar(&f.CSVPath, "csv", "", "CSV report path (auto-named when empty)")
	flags.StringVar(&f.DBPath, "db", "", "Optional SQLite report database path")
}

func (g *GlobalFlags) ValidatePreset(f PresetFlags) error {
	verr := &ValidationError{}
	g.validate(verr)
	known := false
	for _, name := range preset.Names() {
		if f.Profile == name {
			known = true
			break
		}
	}
	if !known {
		verr.add("profile must be one of %s, got %q", strings.Join(preset.Names(), ", "), f.Profile)
	}
	return verr.orNil()
}

// ParseConcurrencies parses a comma-separated list of positive integers,
// preserving order.
func ParseConcurrencies(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid concurrency value %q", part)
		}
		if v < 1 {
			return nil, fmt.Errorf("concurrency values must be positive, got %d", v)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("concurrency list is empty")
	}
	return values, nil
}
