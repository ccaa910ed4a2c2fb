package target_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/calibench/calibench/internal/target"
)

func TestParseFullURL(t *testing.T) {
	tgt, err := target.Parse("http://127.0.0.1:8080/ping?x=1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := tgt.Addr(), "127.0.0.1:8080"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
	if got, want := tgt.Authority(), "127.0.0.1:8080"; got != want {
		t.Errorf("Authority() = %q, want %q", got, want)
	}
	want := "GET /ping?x=1 HTTP/1.1\r\nHost: 127.0.0.1:8080\r\nConnection: close\r\n\r\n"
	if got := string(tgt.Request()); got != want {
		t.Errorf("Request() = %q, want %q", got, want)
	}
}

func TestParseDefaults(t *testing.T) {
	tgt, err := target.Parse("http://example.com")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := tgt.Port(), 80; got != want {
		t.Errorf("Port() = %d, want %d", got, want)
	}
	if !strings.HasPrefix(string(tgt.Request()), "GET / HTTP/1.1\r\n") {
		t.Errorf("empty path should render as /: %q", tgt.Request())
	}
	if got, want := tgt.Authority(), "example.com"; got != want {
		t.Errorf("Authority() = %q, want %q", got, want)
	}
}

func TestParseHostDefaultsToLoopback(t *testing.T) {
	tgt, err := target.Parse("/status")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := tgt.Addr(), "127.0.0.1:80"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}

func TestParseRejectsNonHTTPSchemes(t *testing.T) {
	for _, raw := range []string{"https://example.com/", "ftp://example.com/", "ws://example.com/"} {
		_, err := target.Parse(raw)
		if !errors.Is(err, target.ErrUnsupportedScheme) {
			t.Errorf("Parse(%q) error = %v, want ErrUnsupportedScheme", raw, err)
		}
	}
}

func TestParseRejectsPortOutOfRange(t *testing.T) {
	if _, err := target.Parse("http://example.com:99999/"); err == nil {
		t.Error("expected error for out-of-range port")
	}
	if _, err := target.Parse("http://example.com:0/"); err == nil {
		t.Error("expected error for port zero")
	}
}
