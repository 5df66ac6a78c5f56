package search

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
)

const (
	cacheName      = "search"
	cacheKeyPrefix = "search:"
	defaultTTL     = 2 * time.Minute
)

// CachedSearcher caches search results in Redis. Without a Redis client it
// passes straight through to the wrapped searcher.
type CachedSearcher struct {
	next  Searcher
	redis *cache.RedisClient
	ttl   time.Duration
}

func NewCachedSearcher(next Searcher, redis *cache.RedisClient, ttl time.Duration) *CachedSearcher {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CachedSearcher{next: next, redis: redis, ttl: ttl}
}

func (c *CachedSearcher) cacheKey(q Query) string {
	data, _ := json.Marshal(q)
	return fmt.Sprintf("%s%s:%x", cacheKeyPrefix, q.Type, md5.Sum(data))
}

func (c *CachedSearcher) Search(ctx context.Context, q Query) (*Result, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	if c.redis == nil {
		return c.next.Search(ctx, q)
	}

	key := c.cacheKey(q)
	start := time.Now()
	cached, err := c.redis.Get(ctx, key)
	metrics.RecordCacheOperation("get", cacheName, time.Since(start))
	if err == nil {
		var result Result
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			metrics.RecordCacheHit(cacheName)
			return &result, nil
		}
	}
	metrics.RecordCacheMiss(cacheName)

	result, err := c.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(result); err == nil {
		if err := c.redis.SetEx(ctx, key, data, c.ttl); err != nil {
			logger.WarnWithFields("Failed to cache search result", err)
		}
	}
	return result, nil
}

// Invalidate drops every cached result.
func (c *CachedSearcher) Invalidate(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	_, err := c.redis.DeletePattern(ctx, cacheKeyPrefix+"*")
	return err
}
