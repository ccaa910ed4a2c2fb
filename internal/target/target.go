// Package target turns a URL into the immutable destination every request
// executor shares: a host/port pair plus pre-rendered HTTP/1.1 request bytes.
package target

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnsupportedScheme is returned when the URL carries a scheme other than
// plain "http". TLS and every other scheme are out of scope by design.
var ErrUnsupportedScheme = errors.New("only plain http targets are supported")

// Target is derived once per run family and treated as read-only afterwards.
type Target struct {
	host      string
	port      int
	authority string
	request   []byte
	raw       string
}

// Parse extracts host, port and path from a URL string and renders the fixed
// GET request the executors will replay. The host defaults to 127.0.0.1, the
// port to 80 and the path to "/"; the Host header carries the authority
// exactly as it appeared in the URL.
func Parse(raw string) (*Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse target %q: %w", raw, err)
	}
	if u.Scheme != "" && !strings.EqualFold(u.Scheme, "http") {
		return nil, fmt.Errorf("%w: got scheme %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := 80
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse target %q: invalid port %q", raw, p)
		}
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("parse target %q: port %d out of range", raw, port)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	authority := u.Host
	if authority == "" {
		authority = host
	}

	request := fmt.Sprintf(
		"GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n",
		path, authority,
	)

	return &Target{
		host:      host,
		port:      port,
		authority: authority,
		request:   []byte(request),
		raw:       raw,
	}, nil
}

// Addr returns the dial address in host:port form.
func (t *Target) Addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *Target) Host() string { return t.host }

func (t *Target) Port() int { return t.port }

// Authority is the Host header value, host[:port] as given in the URL.
func (t *Target) Authority() string { return t.authority }

// Request returns the rendered request bytes. Callers must not modify the
// returned slice; it is shared across every in-flight request.
func (t *Target) Request() []byte { return t.request }

// URL returns the original URL string the target was parsed from.
func (t *Target) URL() string { return t.raw }
