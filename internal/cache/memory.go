package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Expiry is checked on read; Sweep or
// RunSweeper reclaim entries that are never read again.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     Clock
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the store's time source.
func WithMemoryClock(now Clock) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if e.Expired(s.now()) {
		s.mu.Lock()
		// a concurrent Set may have replaced it
		if cur, ok := s.entries[key]; ok && cur.StoredAt.Equal(e.StoredAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.Value, true
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	e := newEntry(key, append([]byte(nil), value...), ttl, s.now())

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
