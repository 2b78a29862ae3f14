package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
)

const (
	day = 24 * time.Hour

	// DefaultDangerTTL bounds how long a danger result is reused.
	DefaultDangerTTL = time.Hour
	// DefaultPaymentTTL bounds heuristics results carrying storefront payment
	// methods, which change far faster than the domain name itself.
	DefaultPaymentTTL = day
	// DefaultPaymentRetryTTL bounds heuristics results whose storefront scan failed.
	DefaultPaymentRetryTTL = time.Hour
	// DefaultAggregateTTL is the lifetime of a cached aggregate result.
	DefaultAggregateTTL = day
)

// TTLPolicy is the cache lifetime of each signal type.
type TTLPolicy map[domain.SignalType]time.Duration

// DefaultTTLPolicy caches slow-changing signals longer.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		domain.SignalDomainAge:   30 * day,
		domain.SignalCertificate: 7 * day,
		domain.SignalHeuristics:  30 * day,
		domain.SignalMalware:     day,
		domain.SignalReputation:  day,
		domain.SignalReviews:     6 * time.Hour,
	}
}

// Merge returns p with the non-zero durations of overrides applied.
func (p TTLPolicy) Merge(overrides TTLPolicy) TTLPolicy {
	out := make(TTLPolicy, len(p))
	for t, d := range p {
		out[t] = d
	}
	for t, d := range overrides {
		if d > 0 {
			out[t] = d
		}
	}
	return out
}

// Key normalizes a domain for use in cache keys.
func Key(domainName string) string {
	d := strings.ToLower(strings.TrimSpace(domainName))
	return strings.TrimPrefix(d, "www.")
}

// SignalKey is the cache key of one signal for one domain.
func SignalKey(t domain.SignalType, domainName string) string {
	return "signal:" + string(t) + ":" + Key(domainName)
}

// SignalCache holds one SignalResult per signal type per domain.
type SignalCache struct {
	store     Store
	ttl       TTLPolicy
	dangerTTL time.Duration
	// payment lifetimes apply to heuristics results only
	paymentTTL      time.Duration
	paymentRetryTTL time.Duration
	logger          logger.Logger
	recorder        Recorder
}

// SignalCacheOption configures a SignalCache.
type SignalCacheOption func(*SignalCache)

// WithTTLPolicy replaces the per-type lifetimes.
func WithTTLPolicy(p TTLPolicy) SignalCacheOption {
	return func(c *SignalCache) { c.ttl = p }
}

// WithDangerTTL caps the lifetime of danger results; zero disables the cap.
func WithDangerTTL(d time.Duration) SignalCacheOption {
	return func(c *SignalCache) { c.dangerTTL = d }
}

// WithPaymentTTL caps heuristics results that carry payment methods (ttl) or
// whose storefront scan failed (retry). Zero leaves a cap disabled.
func WithPaymentTTL(ttl, retry time.Duration) SignalCacheOption {
	return func(c *SignalCache) {
		c.paymentTTL = ttl
		c.paymentRetryTTL = retry
	}
}

// WithSignalRecorder reports hits and misses.
func WithSignalRecorder(r Recorder) SignalCacheOption {
	return func(c *SignalCache) { c.recorder = r }
}

// NewSignalCache creates a signal cache over store.
func NewSignalCache(store Store, log logger.Logger, opts ...SignalCacheOption) *SignalCache {
	c := &SignalCache{
		store:           store,
		ttl:             DefaultTTLPolicy(),
		dangerTTL:       DefaultDangerTTL,
		paymentTTL:      DefaultPaymentTTL,
		paymentRetryTTL: DefaultPaymentRetryTTL,
		logger:          log,
		recorder:        nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the lifetime a result would be stored with.
func (c *SignalCache) TTL(r domain.SignalResult) time.Duration {
	ttl := c.ttl[r.Type]
	if d, ok := r.Details.(domain.HeuristicsDetails); ok {
		switch {
		case d.PaymentUnavailable:
			ttl = capTTL(ttl, c.paymentRetryTTL)
		case d.Payment != nil:
			ttl = capTTL(ttl, c.paymentTTL)
		}
	}
	if r.Status == domain.StatusDanger {
		ttl = capTTL(ttl, c.dangerTTL)
	}
	return ttl
}

func capTTL(ttl, limit time.Duration) time.Duration {
	if limit > 0 && limit < ttl {
		return limit
	}
	return ttl
}

// Get returns the cached result verbatim.
func (c *SignalCache) Get(ctx context.Context, t domain.SignalType, domainName string) (domain.SignalResult, bool) {
	key := SignalKey(t, domainName)
	raw, ok := c.store.Get(ctx, key)
	if !ok {
		c.recorder.RecordCache("signal", OutcomeMiss)
		return domain.SignalResult{}, false
	}

	var r domain.SignalResult
	if err := json.Unmarshal(raw, &r); err != nil || r.Type != t {
		c.logger.Warn("Ignoring undecodable cached signal",
			logger.Signal(string(t)),
			logger.Domain(domainName),
			logger.Any("error", err),
		)
		c.recorder.RecordCache("signal", OutcomeMiss)
		return domain.SignalResult{}, false
	}

	c.recorder.RecordCache("signal", OutcomeHit)
	return r, true
}

// Set stores r under its type and domainName.
func (c *SignalCache) Set(ctx context.Context, domainName string, r domain.SignalResult) {
	data, err := json.Marshal(r)
	if err != nil {
		c.logger.Warn("Signal result encode failed",
			logger.Signal(string(r.Type)),
			logger.Domain(domainName),
			logger.Error(err),
		)
		return
	}
	c.store.Set(ctx, SignalKey(r.Type, domainName), data, c.TTL(r))
	c.recorder.RecordCache("signal", OutcomeStore)
}
