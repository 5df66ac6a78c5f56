package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	apierrors "github.com/Curious-3/EchoesOfArt-sub000/internal/errors"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Name string
	// Requests per window
	Limit  int
	Window time.Duration
	// KeyFunc picks the bucket for a request. Defaults to the client IP.
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns the general API profile.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Name: "default", Limit: 100, Window: time.Minute}
}

// AuthRateLimitConfig returns stricter limits for register/login/OTP endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Name: "auth", Limit: 10, Window: time.Minute}
}

// UploadRateLimitConfig returns limits for media upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Name: "upload", Limit: 20, Window: time.Minute}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. A bucket holds Limit tokens and
// refills at Limit per Window.
type RateLimiter struct {
	config   RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Name == "" {
		config.Name = "default"
	}
	return &RateLimiter{config: config, visitors: make(map[string]*visitor)}
}

// NewRateLimiter creates an in-memory rate limiting middleware.
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	rl := newRateLimiter(config)
	go rl.cleanupRoutine(config.Window * 3)
	return rl.Handler()
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.config.KeyFunc(c)
		if ok, retryAfter := rl.Allow(key); !ok {
			metrics.RecordRateLimitExceeded(rl.config.Name, c.FullPath())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			util.RespondWithAPIError(c, apierrors.RateLimited("rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// Allow consumes a token for key. When no token is available it reports the
// number of seconds until one will be.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		every := rate.Limit(float64(rl.config.Limit) / rl.config.Window.Seconds())
		v = &visitor{limiter: rate.NewLimiter(every, rl.config.Limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	r := v.limiter.Reserve()
	if !r.OK() {
		return false, int(rl.config.Window.Seconds())
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, int(math.Ceil(delay.Seconds()))
	}
	return true, 0
}

func (rl *RateLimiter) cleanupRoutine(idle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.evictIdle(idle)
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// RateLimit returns a middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig())
}

// RateLimitAuth uses Redis when it is connected and the in-memory limiter otherwise.
func RateLimitAuth() gin.HandlerFunc {
	cfg := AuthRateLimitConfig()
	return RedisRateLimitMiddleware(cfg, NewRateLimiter(cfg))
}

// RateLimitUpload returns a middleware for upload endpoints
func RateLimitUpload() gin.HandlerFunc {
	return NewRateLimiter(UploadRateLimitConfig())
}
