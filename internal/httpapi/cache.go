package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// analyticsCacheTTL bounds how long a computed analytics response may be
// served from the Redis cache before a refresh recomputes it. Analytics
// only change after a refresh, but the cache has no invalidation hook into
// the orchestrator, so a short TTL keeps it from going stale for long after
// one.
const analyticsCacheTTL = 30 * time.Second

// analyticsCache memoizes expensive analytics computations. Within one
// process it collapses concurrent duplicate requests via singleflight, and
// when Redis is configured it also serves a short-lived cross-request cache
// so repeat dashboard polling doesn't re-walk the JSONL store on every hit.
type analyticsCache struct {
	redis *redis.Client
	group singleflight.Group
	log   *zap.SugaredLogger
}

func newAnalyticsCache(redisAddr string, logger *zap.SugaredLogger) *analyticsCache {
	c := &analyticsCache{log: logger}
	if redisAddr == "" {
		return c
	}
	c.redis = redis.NewClient(&redis.Options{Addr: redisAddr})
	return c
}

// getOrCompute returns the cached JSON-decoded value for key, computing it
// via fn (at most once across concurrent callers with the same key) on a
// miss. dest must be a pointer; its pointee is overwritten on both hit and
// miss paths.
func (c *analyticsCache) getOrCompute(ctx context.Context, key string, dest interface{}, fn func() (interface{}, error)) error {
	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				return nil
			}
		}
	}

	v, err, _ := c.group.Do(key, fn)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, raw, analyticsCacheTTL).Err(); err != nil && c.log != nil {
			c.log.Debugw("analytics cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (c *analyticsCache) healthy(ctx context.Context) bool {
	if c.redis == nil {
		return true
	}
	return c.redis.Ping(ctx).Err() == nil
}
