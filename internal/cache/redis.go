package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "storetrust:"

// RedisStore persists entries in Redis with a native TTL. Redis errors are
// logged and treated as a miss or a dropped write.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger logger.Logger
	now    Clock
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRedisClock overrides the time source used for the envelope.
func WithRedisClock(now Clock) RedisOption {
	return func(s *RedisStore) { s.now = now }
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, log logger.Logger, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	redisKey := s.key(key)

	raw, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("Redis cache read failed, treating as miss",
			logger.String("redis_key", redisKey),
			logger.Error(err),
		)
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Warn("Discarding undecodable cache entry",
			logger.String("redis_key", redisKey),
			logger.Error(err),
		)
		return nil, false
	}

	if e.Expired(s.now()) {
		if err := s.client.Del(ctx, redisKey).Err(); err != nil {
			s.logger.Debug("Redis delete of expired entry failed",
				logger.String("redis_key", redisKey),
				logger.Error(err),
			)
		}
		return nil, false
	}
	return e.Value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	redisKey := s.key(key)
	e := newEntry(key, value, ttl, s.now())

	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("Cache entry encode failed",
			logger.String("redis_key", redisKey),
			logger.Error(err),
		)
		return
	}

	if err := s.client.Set(ctx, redisKey, data, e.TTL()).Err(); err != nil {
		s.logger.Warn("Redis cache write failed, skipping",
			logger.String("redis_key", redisKey),
			logger.Duration("ttl", e.TTL()),
			logger.Error(err),
		)
	}
}

// Ping reports backend reachability for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
