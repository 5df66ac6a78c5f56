package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handler)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doGet(router http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Limit: 3, Window: time.Second})
	router := limitedRouter(rl.Handler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.1:1234").Code, "request %d should succeed", i+1)
	}

	w := doGet(router, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	// One token refills every third of a second
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.1:1234").Code)
}

func TestRateLimiterDifferentClients(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Limit: 2, Window: time.Minute})
	router := limitedRouter(rl.Handler())

	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, "10.0.0.1:1").Code)

	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.2:1").Code)
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Limit: 1, Window: time.Minute})
	ok, _ := rl.Allow("a")
	require.True(t, ok)

	rl.evictIdle(0)
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()

	ok, _ = rl.Allow("a")
	assert.True(t, ok, "evicted visitor starts with a full bucket")
}

func TestRedisRateLimitFallsBackWithoutRedis(t *testing.T) {
	cache.SetRedisClient(nil)

	cfg := RateLimitConfig{Name: "auth", Limit: 1, Window: time.Minute}
	router := limitedRouter(RedisRateLimitMiddleware(cfg, newRateLimiter(cfg).Handler()))

	assert.Equal(t, http.StatusOK, doGet(router, "10.0.0.9:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, "10.0.0.9:1").Code)
}
