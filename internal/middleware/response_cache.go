package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const responseCacheName = "response_cache"

// ResponseCacheMiddleware caches 2xx GET responses in Redis for ttl.
// Keys are response:{path}[:{query}][:{user_id}], and X-Cache reports HIT or MISS.
// Without Redis the middleware is a pass-through.
func ResponseCacheMiddleware(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			c.Next()
			return
		}

		cacheKey := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery, c.GetString("user_id"))
		ctx := c.Request.Context()

		start := time.Now()
		cached, err := redisClient.Get(ctx, cacheKey)
		metrics.RecordCacheOperation("GET", responseCacheName, time.Since(start))
		if err == nil {
			metrics.RecordCacheHit(responseCacheName)
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.WarnWithFields("Response cache read failed", err, zap.String("key", cacheKey))
		}
		metrics.RecordCacheMiss(responseCacheName)

		writer := &cachedResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 || writer.body.Len() == 0 {
			return
		}
		start = time.Now()
		if err := redisClient.SetEx(ctx, cacheKey, writer.body.String(), ttl); err != nil {
			logger.WarnWithFields("Response cache write failed", err, zap.String("key", cacheKey))
			return
		}
		metrics.RecordCacheOperation("SET", responseCacheName, time.Since(start))
	}
}

// CacheInvalidationMiddleware deletes keys matching patterns after a successful
// mutation.
func CacheInvalidationMiddleware(patterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			return
		}
		for _, pattern := range patterns {
			if _, err := redisClient.DeletePattern(c.Request.Context(), pattern); err != nil {
				logger.WarnWithFields("Cache invalidation failed", err, zap.String("pattern", pattern))
			}
		}
	}
}

func responseCacheKey(path, query, userID string) string {
	key := fmt.Sprintf("response:%s", path)
	if query != "" {
		key = fmt.Sprintf("%s:%s", key, query)
	}
	if userID != "" {
		key = fmt.Sprintf("%s:%s", key, userID)
	}
	return key
}

// cachedResponseWriter copies the body while it is written to the client.
type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
