// Package http builds outbound HTTP clients with bounded timeouts.
package http

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a whole request including reading the body.
	DefaultTimeout = 10 * time.Second

	DefaultMaxIdleConns          = 100
	DefaultMaxIdleConnsPerHost   = 10
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
)

// ClientConfig configures an HTTP client. Zero values use the defaults above.
type ClientConfig struct {
	Timeout               time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
}

// NewClient creates an *http.Client from cfg. A nil cfg uses all defaults.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          orDefault(cfg.MaxIdleConns, DefaultMaxIdleConns),
		MaxIdleConnsPerHost:   orDefault(cfg.MaxIdleConnsPerHost, DefaultMaxIdleConnsPerHost),
		IdleConnTimeout:       orDefault(cfg.IdleConnTimeout, DefaultIdleConnTimeout),
		ResponseHeaderTimeout: orDefault(cfg.ResponseHeaderTimeout, DefaultResponseHeaderTimeout),
		TLSHandshakeTimeout:   orDefault(cfg.TLSHandshakeTimeout, DefaultTLSHandshakeTimeout),
		ExpectContinueTimeout: time.Second,
	}

	var rt http.RoundTripper = transport
	if cfg.UserAgent != "" {
		rt = &userAgentTransport{next: transport, userAgent: cfg.UserAgent}
	}

	return &http.Client{
		Timeout:   orDefault(cfg.Timeout, DefaultTimeout),
		Transport: rt,
	}
}

func orDefault[T int | time.Duration](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
