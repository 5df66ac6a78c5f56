package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	apierrors "github.com/Curious-3/EchoesOfArt-sub000/internal/errors"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every API
// instance. While Redis is not connected requests are handed to fallback.
func RedisRateLimitMiddleware(config RateLimitConfig, fallback gin.HandlerFunc) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			if fallback != nil {
				fallback(c)
				return
			}
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", config.Name, config.KeyFunc(c))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, ttl, err := redisClient.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// A broken limiter must not open the auth endpoints to brute force.
			logger.ErrorWithFields("Rate limit check failed, rejecting request", err,
				logger.WithIP(c.ClientIP()))
			util.RespondWithAPIError(c, apierrors.ServiceUnavailable("rate limiter"))
			return
		}

		remaining := int64(config.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(config.Limit) {
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = int(config.Window.Seconds())
			}
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.String("limiter", config.Name),
				zap.Int64("count", count),
			)
			metrics.RecordRateLimitExceeded(config.Name, c.FullPath())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			util.RespondWithAPIError(c, apierrors.RateLimited("rate limit exceeded"))
			return
		}

		c.Next()
	}
}
