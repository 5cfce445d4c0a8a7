// Package cache provides a Redis-backed cache of resolved search responses
// keyed by normalized question and language. Embedding the same question
// repeatedly is the dominant cost of the service, so identical in-flight
// questions are also collapsed through singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ShivaAryal/constitution-search/internal/resolver"
	"github.com/ShivaAryal/constitution-search/pkg/config"
	pkgredis "github.com/ShivaAryal/constitution-search/pkg/redis"
)

const keyPrefix = "search:"

// QueryCache caches search resolutions in Redis.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache on top of an established Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for the question, if present.
func (c *QueryCache) Get(ctx context.Context, question, language string) ([]resolver.Result, bool) {
	key := c.buildKey(question, language)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []resolver.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "language", language, "key", key)
	return results, true
}

// Set stores the results under the question's key with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, question, language string, results []resolver.Result) {
	key := c.buildKey(question, language)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached results or computes, stores, and returns
// them. Concurrent requests for the same question share one computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	question, language string,
	computeFn func() ([]resolver.Result, error),
) ([]resolver.Result, bool, error) {
	if results, ok := c.Get(ctx, question, language); ok {
		return results, true, nil
	}
	key := c.buildKey(question, language)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, question, language); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, question, language, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]resolver.Result), false, nil
}

// Invalidate removes every cached search response, e.g. after a corpus
// redeploy.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(question, language string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	raw := fmt.Sprintf("%s|%s", language, normalized)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
