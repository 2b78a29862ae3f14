// Package providers implements the signal collaborators: HTTP and TLS
// lookups against third-party reputation sources, each mapped into a
// SignalResult.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/circuitbreaker"
	infrahttp "github.com/jonesrussell/storetrust/infrastructure/http"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"golang.org/x/time/rate"
)

const (
	maxBodyBytes    = 2 << 20
	errorBodyLength = 256
	userAgent       = "storetrust/1.0 (+https://github.com/jonesrussell/storetrust)"
)

// ErrProviderStatus matches any StatusError.
var ErrProviderStatus = errors.New("provider returned non-success status")

// StatusError is returned for a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrProviderStatus
}

// isOutage reports whether err means the provider is unhealthy. A 4xx answer
// (unknown domain, no review page) is a valid reply about the subject, except
// for timeouts and throttling.
func isOutage(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	switch {
	case se.StatusCode == http.StatusRequestTimeout, se.StatusCode == http.StatusTooManyRequests:
		return true
	case se.StatusCode >= http.StatusBadRequest && se.StatusCode < http.StatusInternalServerError:
		return false
	default:
		return true
	}
}

// ClientConfig configures one provider's HTTP access.
type ClientConfig struct {
	Name          string
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Breaker       circuitbreaker.Config
}

// Client performs rate limited, circuit broken HTTP calls for one provider.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuitbreaker.Breaker
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewClient builds a client. A zero RatePerSecond disables rate limiting.
func NewClient(cfg ClientConfig, log logger.Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := max(cfg.Burst, 1)

	breakerCfg := cfg.Breaker
	if breakerCfg.IsFailure == nil {
		breakerCfg.IsFailure = isOutage
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
			log.Warn("Provider circuit breaker state changed",
				logger.String("provider", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}
	}

	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout:   cfg.Timeout,
			UserAgent: userAgent,
		}),
		breaker: circuitbreaker.New(cfg.Name, breakerCfg),
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// APIKey returns the configured credential.
func (c *Client) APIKey() string { return c.apiKey }

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// GetJSON fetches path relative to the base URL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, c.URL(path), nil, out)
}

// PostJSON sends body as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.name, err)
	}
	return c.doJSON(ctx, http.MethodPost, c.URL(path), payload, out)
}

// Fetch returns up to 2 MiB of the body at an absolute URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := c.do(ctx, http.MethodGet, rawURL, nil, "text/html", func(r io.Reader) error {
		var readErr error
		body, readErr = io.ReadAll(r)
		return readErr
	})
	return body, err
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload []byte, out any) error {
	return c.do(ctx, method, rawURL, payload, "application/json", func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, accept string, read func(io.Reader) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", c.name, err)
	}

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", accept)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		limited := io.LimitReader(resp.Body, maxBodyBytes)
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			excerpt, _ := io.ReadAll(io.LimitReader(limited, errorBodyLength))
			return &StatusError{Provider: c.name, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
		}
		return read(limited)
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return err
		}
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}
