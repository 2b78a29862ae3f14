package cache

import (
	"context"
	"time"
)

// NopStore never stores anything. It stands in when caching is disabled or
// the configured backend is unreachable.
type NopStore struct{}

func (NopStore) Name() string { return "none" }

func (NopStore) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NopStore) Set(context.Context, string, []byte, time.Duration) {}
