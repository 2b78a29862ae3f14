// Package cache provides the signal and aggregate caches and the key-value
// backends behind them. A backend never returns an error: failures degrade
// to a miss on read and a no-op on write.
package cache

import (
	"context"
	"encoding/json"
	"math"
	"time"
)

// Store is a TTL key-value backend.
type Store interface {
	// Get returns the value for key, or false if absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key, replacing any existing entry. A
	// non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Entry is the envelope every backend persists.
type Entry struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	StoredAt   time.Time       `json:"storedAt"`
	TTLSeconds int64           `json:"ttlSeconds"`
}

func newEntry(key string, value []byte, ttl time.Duration, now time.Time) Entry {
	return Entry{
		Key:        key,
		Value:      value,
		StoredAt:   now,
		TTLSeconds: ttlSeconds(ttl),
	}
}

// ttlSeconds rounds up so a sub-second ttl still lives one second.
func ttlSeconds(ttl time.Duration) int64 {
	return int64(math.Ceil(ttl.Seconds()))
}

// TTL returns the entry's lifetime.
func (e Entry) TTL() time.Duration {
	return time.Duration(e.TTLSeconds) * time.Second
}

// Expired reports whether the entry is older than its TTL at now.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL()
}

// Clock returns the current time.
type Clock func() time.Time

// Recorder receives cache outcomes for metrics.
type Recorder interface {
	RecordCache(tier, outcome string)
}

// Cache outcomes reported to a Recorder.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeStore = "store"
)

type nopRecorder struct{}

func (nopRecorder) RecordCache(string, string) {}
