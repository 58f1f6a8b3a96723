package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// JSON is a best-effort Redis cache for JSON payloads. A nil *JSON, a nil client or
// a zero TTL turns every call into a miss/no-op; Redis errors are logged, never returned.
type JSON struct {
	Rdb *redis.Client
	TTL time.Duration
}

func (c *JSON) enabled() bool {
	return c != nil && c.Rdb != nil && c.TTL > 0
}

// Get decodes the value under key into dst. It reports whether a value was found.
func (c *JSON) Get(ctx context.Context, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}
	b, err := c.Rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry")
		return false
	}
	return true
}

// Set stores v under key with the configured TTL.
func (c *JSON) Set(ctx context.Context, key string, v interface{}) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: marshal failed")
		return
	}
	if err := c.Rdb.Set(ctx, key, b, c.TTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

// Invalidate deletes keys. Called after the write that made them stale has committed.
func (c *JSON) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.Rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.Rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache: invalidate failed")
	}
}

// Version reads the generation counter under key, 0 when unset. ok is false when the
// cache is disabled or Redis fails, in which case callers should bypass the cache.
func (c *JSON) Version(ctx context.Context, key string) (v int64, ok bool) {
	if !c.enabled() {
		return 0, false
	}
	v, err := c.Rdb.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("cache: version read failed")
		return 0, false
	}
	return v, true
}

// Bump increments the generation counter under key. Entries stored under the
// previous generation are never read again and age out with their TTL.
func (c *JSON) Bump(ctx context.Context, key string) {
	if c == nil || c.Rdb == nil {
		return
	}
	if err := c.Rdb.Incr(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: version bump failed")
	}
}

// Open builds a client from a redis:// URL. An empty URL returns nil (Redis disabled).
func Open(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
