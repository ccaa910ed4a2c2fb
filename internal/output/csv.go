package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/calibench/calibench/internal/preset"
)

// csvHeader is the report sink schema: one row per measurement point, with
// phase-inapplicable fields left blank.
var csvHeader = []string{
	"phase", "profile", "url", "timestamp",
	"concurrency", "total_requests", "open_duration_sec", "warmup", "repeat",
	"open_target_rps", "throughput_rps", "p50_ms", "p90_ms", "p99_ms", "errors",
}

// DefaultCSVPath names a report file for one preset invocation. The ULID
// keeps concurrent and repeated invocations from colliding.
func DefaultCSVPath(profile string) string {
	return fmt.Sprintf("preset_%s_%s.csv", profile, ulid.Make().String())
}

// WriteCSVReport writes the report rows to path, holding an advisory lock so
// two invocations pointed at the same file cannot interleave.
func WriteCSVReport(path string, rows []preset.Row) (err error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(csvRecord(row)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func csvRecord(r preset.Row) []string {
	rec := []string{
		r.Phase,
		r.Profile,
		r.URL,
		r.Timestamp,
		strconv.Itoa(r.Concurrency),
		"", // total_requests
		"", // open_duration_sec
		"", // warmup
		strconv.Itoa(r.Repeat),
		"", // open_target_rps
		formatFloat(r.ThroughputRPS),
		formatFloat(r.P50Ms),
		formatFloat(r.P90Ms),
		formatFloat(r.P99Ms),
		formatFloat(r.Errors),
	}
	switch r.Phase {
	case preset.PhaseClosedSweep:
		rec[5] = strconv.Itoa(r.TotalRequests)
		rec[7] = strconv.Itoa(int(r.Warmup)) // warmup requests
	case preset.PhaseOpenLoop:
		rec[6] = formatFloat(r.OpenDurationSec)
		rec[7] = formatFloat(r.Warmup) // warmup seconds
		rec[9] = formatFloat(r.OpenTargetRPS)
	}
	return rec
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
