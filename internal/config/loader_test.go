package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/calibench/calibench/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"target": "http://10.0.0.5:9000/",
		"timeout": "2s",
		"presets": {
			"smoke": {
				"closed": {"total_per_c": 500, "concurrencies": [1, 4]},
				"open": {"duration": 5}
			}
		}
	}`)

	f, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Target != "http://10.0.0.5:9000/" {
		t.Errorf("Target = %q", f.Target)
	}
	if f.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", f.Timeout)
	}

	ov, ok := f.Presets["smoke"]
	if !ok {
		t.Fatal("smoke override missing")
	}
	if ov.Closed == nil || ov.Closed.TotalPerC == nil || *ov.Closed.TotalPerC != 500 {
		t.Errorf("closed override = %+v, want total_per_c 500", ov.Closed)
	}
	if len(ov.Closed.Concurrencies) != 2 {
		t.Errorf("concurrencies override = %v", ov.Closed.Concurrencies)
	}
	if ov.Open == nil || ov.Open.DurationSec == nil || *ov.Open.DurationSec != 5 {
		t.Errorf("open override = %+v, want duration 5", ov.Open)
	}
	// Fields not present in the file stay nil so profile defaults survive.
	if ov.Closed.Repeat != nil {
		t.Errorf("repeat override should be nil, got %v", *ov.Closed.Repeat)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyFileDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var url string
	var timeout time.Duration
	flags.StringVar(&url, "url", "http://127.0.0.1:8000/", "")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "")

	// Operator set url explicitly; the file only fills in timeout.
	if err := flags.Set("url", "http://operator:1234/"); err != nil {
		t.Fatal(err)
	}

	f := &config.File{Target: "http://file:9999/", Timeout: 2 * time.Second}
	if err := config.ApplyFileDefaults(flags, f); err != nil {
		t.Fatalf("ApplyFileDefaults: %v", err)
	}
	if url != "http://operator:1234/" {
		t.Errorf("explicit flag overwritten: %q", url)
	}
	if timeout != 2*time.Second {
		t.Errorf("timeout = %v, want file value 2s", timeout)
	}
}

func TestApplyFileDefaultsIgnoresUnknownFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	// No csv/db flags registered, as on non-preset subcommands.
	f := &config.File{CSV: "out.csv", DB: "out.db"}
	if err := config.ApplyFileDefaults(flags, f); err != nil {
		t.Errorf("ApplyFileDefaults: %v", err)
	}
}
