package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/calibench/calibench/internal/config"
)

func validGlobals() config.GlobalFlags {
	return config.GlobalFlags{
		URL:          "http://127.0.0.1:8000/",
		Timeout:      5 * time.Second,
		OTLPProtocol: "grpc",
	}
}

func TestParseConcurrencies(t *testing.T) {
	got, err := config.ParseConcurrencies("1, 2,5 ,10")
	if err != nil {
		t.Fatalf("ParseConcurrencies: %v", err)
	}
	want := []int{1, 2, 5, 10}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParseConcurrenciesRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "a,b", "1,0,2", "-5", ","} {
		if _, err := config.ParseConcurrencies(s); err == nil {
			t.Errorf("ParseConcurrencies(%q) should fail", s)
		}
	}
}

func TestValidateClosedAggregatesIssues(t *testing.T) {
	g := validGlobals()
	err := g.ValidateClosed(config.ClosedFlags{Total: 0, Concurrency: 0, Warmup: -1, Repeat: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"total", "concurrency", "warmup", "repeat"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %s", msg, want)
		}
	}
}

func TestValidateClosedAccepts(t *testing.T) {
	g := validGlobals()
	if err := g.ValidateClosed(config.ClosedFlags{Total: 100, Concurrency: 10, Repeat: 1}); err != nil {
		t.Errorf("valid flags rejected: %v", err)
	}
}

func TestValidateOpenRejectsNonPositiveRate(t *testing.T) {
	g := validGlobals()
	for _, rate := range []float64{0, -100} {
		err := g.ValidateOpen(config.OpenFlags{
			Rate: rate, Duration: time.Second, Concurrency: 1, Repeat: 1,
		})
		if err == nil || !strings.Contains(err.Error(), "rps") {
			t.Errorf("rate %v: error = %v, want rps complaint", rate, err)
		}
	}
}

func TestValidateOpenAccepts(t *testing.T) {
	g := validGlobals()
	err := g.ValidateOpen(config.OpenFlags{
		Rate: 500, Duration: 10 * time.Second, Concurrency: 100, Repeat: 3,
	})
	if err != nil {
		t.Errorf("valid flags rejected: %v", err)
	}
}

func TestValidateSweepParsesList(t *testing.T) {
	g := validGlobals()
	concurrencies, err := g.ValidateSweep(config.SweepFlags{
		Total: 100, Concurrencies: "1,5,10", Repeat: 1,
	})
	if err != nil {
		t.Fatalf("ValidateSweep: %v", err)
	}
	if len(concurrencies) != 3 || concurrencies[2] != 10 {
		t.Errorf("concurrencies = %v, want [1 5 10]", concurrencies)
	}
}

func TestValidatePresetProfile(t *testing.T) {
	g := validGlobals()
	if err := g.ValidatePreset(config.PresetFlags{Profile: "standard"}); err != nil {
		t.Errorf("standard profile rejected: %v", err)
	}
	if err := g.ValidatePreset(config.PresetFlags{Profile: "turbo"}); err == nil {
		t.Error("unknown profile accepted")
	}
}

func TestValidateGlobalIssues(t *testing.T) {
	g := config.GlobalFlags{URL: " ", Timeout: 0, OTLPProtocol: "udp"}
	err := g.ValidateClosed(config.ClosedFlags{Total: 1, Concurrency: 1, Repeat: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"url", "timeout", "otlp-protocol"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %s", msg, want)
		}
	}
}
