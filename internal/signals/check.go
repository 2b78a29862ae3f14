// Package signals runs signal checks concurrently and turns every failure
// into a neutral placeholder.
package signals

import (
	"context"

	"github.com/jonesrussell/storetrust/internal/cache"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
)

// Check is the contract every signal collaborator satisfies.
type Check interface {
	Type() domain.SignalType
	Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error)
}

// CheckFunc adapts a function to Check.
type CheckFunc struct {
	SignalType domain.SignalType
	Fn         func(ctx context.Context, normalizedURL string) (domain.SignalResult, error)
}

func (f CheckFunc) Type() domain.SignalType { return f.SignalType }

func (f CheckFunc) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	return f.Fn(ctx, normalizedURL)
}

type cachedCheck struct {
	next  Check
	cache *cache.SignalCache
}

// Cached consults the signal cache before running next and stores
// successful results afterwards. Errors are never cached.
func Cached(next Check, c *cache.SignalCache) Check {
	return &cachedCheck{next: next, cache: c}
}

func (c *cachedCheck) Type() domain.SignalType { return c.next.Type() }

func (c *cachedCheck) Check(ctx context.Context, normalizedURL string) (domain.SignalResult, error) {
	domainName := urlnorm.Domain(normalizedURL)
	if r, ok := c.cache.Get(ctx, c.next.Type(), domainName); ok {
		return r, nil
	}

	r, err := c.next.Check(ctx, normalizedURL)
	if err != nil {
		return domain.SignalResult{}, err
	}
	r.Type = c.next.Type()
	c.cache.Set(ctx, domainName, r)
	return r, nil
}
