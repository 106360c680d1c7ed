package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/connect"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the task cache.
const DefaultPrefix = "taskflow:task:"

// generationTTL bounds how long a key's generation counter outlives its last
// invalidation. It must exceed the longest store read.
const generationTTL = time.Hour

// setIfGeneration writes the value only while the generation counter still
// holds the value the reader saw before it queried the store.
//
// KEYS[1] value key, KEYS[2] generation key
// ARGV[1] expected generation, ARGV[2] payload, ARGV[3] ttl in milliseconds
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// Cache stores JSON values in Redis under a common prefix.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  stats
}

type stats struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
	skipped atomic.Uint64
	errors  atomic.Uint64
}

// Stats is a point-in-time copy of the cache counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Deletes uint64  `json:"deletes"`
	Skipped uint64  `json:"skipped"`
	Errors  uint64  `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("hits", s.Hits),
		slog.Uint64("misses", s.Misses),
		slog.Uint64("sets", s.Sets),
		slog.Uint64("deletes", s.Deletes),
		slog.Uint64("skipped", s.Skipped),
		slog.Uint64("errors", s.Errors),
		slog.Float64("hit_rate", s.HitRate),
	)
}

// Open connects to the Redis server at cfg.RedisURL, retrying the initial
// ping with policy.
func Open(ctx context.Context, cfg config.CacheConfig, policy connect.Policy, log *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	err = connect.WithRetry(ctx, "redis", policy, log, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// New creates a Cache. A non-positive ttl stores entries without expiry.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if client == nil {
		panic("client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Get decodes the value stored at key into dest. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.misses.Add(1)
			return false, nil
		}
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.hits.Add(1)
	return true, nil
}

// Set stores value at key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}

	c.stats.sets.Add(1)
	return nil
}

// Generation returns the invalidation counter of key. A key that was never
// invalidated is at generation 0.
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		c.stats.errors.Add(1)
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

// SetIfGeneration stores value at key only if key has not been invalidated
// since Generation returned gen. It reports whether the value was stored.
func (c *Cache) SetIfGeneration(ctx context.Context, key string, gen int64, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache marshal error: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{c.prefix + key, c.generationKey(key)},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache set error: %w", err)
	}

	if stored == 0 {
		c.stats.skipped.Add(1)
		return false, nil
	}
	c.stats.sets.Add(1)
	return true, nil
}

// Delete removes keys and advances their generation, so a SetIfGeneration
// started before the delete cannot restore the old value. Missing keys are
// not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, c.generationKey(k))
			pipe.Expire(ctx, c.generationKey(k), generationTTL)
			pipe.Del(ctx, c.prefix+k)
		}
		return nil
	})
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache delete error: %w", err)
	}

	c.stats.deletes.Add(uint64(len(keys)))
	return nil
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.stats.sets.Load(),
		Deletes: c.stats.deletes.Load(),
		Skipped: c.stats.skipped.Load(),
		Errors:  c.stats.errors.Load(),
		HitRate: hitRate,
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) generationKey(key string) string {
	return c.prefix + "gen:" + key
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
