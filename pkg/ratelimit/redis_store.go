package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces rate limit keys in Redis.
const DefaultRedisKeyPrefix = "ratelimit:"

// fixedWindowScript returns {allowed, count, pttl}. The key's TTL is the window,
// so an expired window is simply a missing key.
var fixedWindowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local current = redis.call('GET', KEYS[1])
if not current then
	redis.call('SET', KEYS[1], 1, 'PX', window)
	return {1, 1, window}
end
current = tonumber(current)
local ttl = redis.call('PTTL', KEYS[1])
if current >= limit then
	return {0, current, ttl}
end
current = redis.call('INCR', KEYS[1])
return {1, current, ttl}
`)

// RedisStore keeps fixed-window counters in Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides DefaultRedisKeyPrefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	windowMs := max(window.Milliseconds(), 1)

	vals, err := fixedWindowScript.Run(ctx, s.client, []string{s.prefix + key}, limit, windowMs).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("ratelimit: unexpected script reply %v", vals)
	}

	allowed, count, ttlMs := vals[0] == 1, int(vals[1]), vals[2]
	if ttlMs < 0 {
		// Key without expiry; treat the window as just started.
		ttlMs = windowMs
	}

	res := &Result{
		Allowed: allowed,
		Limit:   limit,
		ResetAt: s.now().Add(time.Duration(ttlMs) * time.Millisecond),
	}
	if allowed {
		res.Remaining = max(limit-count, 0)
	}
	return res, nil
}
