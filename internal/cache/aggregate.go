package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
)

// AggregateKey is the cache key of a domain's verdict.
func AggregateKey(domainName string) string {
	return "aggregate:" + Key(domainName)
}

// AggregateCache holds one AggregateResult per domain.
type AggregateCache struct {
	store    Store
	ttl      time.Duration
	logger   logger.Logger
	recorder Recorder
}

// NewAggregateCache creates an aggregate cache; a non-positive ttl uses
// DefaultAggregateTTL. A nil recorder disables metrics.
func NewAggregateCache(store Store, ttl time.Duration, log logger.Logger, recorder Recorder) *AggregateCache {
	if ttl <= 0 {
		ttl = DefaultAggregateTTL
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AggregateCache{store: store, ttl: ttl, logger: log, recorder: recorder}
}

func (c *AggregateCache) Get(ctx context.Context, domainName string) (domain.AggregateResult, bool) {
	raw, ok := c.store.Get(ctx, AggregateKey(domainName))
	if !ok {
		c.recorder.RecordCache("aggregate", OutcomeMiss)
		return domain.AggregateResult{}, false
	}

	var r domain.AggregateResult
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.Warn("Ignoring undecodable cached aggregate",
			logger.Domain(domainName),
			logger.Error(err),
		)
		c.recorder.RecordCache("aggregate", OutcomeMiss)
		return domain.AggregateResult{}, false
	}

	c.recorder.RecordCache("aggregate", OutcomeHit)
	return r, true
}

func (c *AggregateCache) Set(ctx context.Context, r domain.AggregateResult) {
	data, err := json.Marshal(r)
	if err != nil {
		c.logger.Warn("Aggregate result encode failed",
			logger.Domain(r.Domain),
			logger.Error(err),
		)
		return
	}
	c.store.Set(ctx, AggregateKey(r.Domain), data, c.ttl)
	c.recorder.RecordCache("aggregate", OutcomeStore)
}
