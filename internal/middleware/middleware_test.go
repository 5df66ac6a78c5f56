package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestResponseCachePassThroughWithoutRedis(t *testing.T) {
	cache.SetRedisClient(nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ResponseCacheMiddleware(time.Minute))
	calls := 0
	router.GET("/published", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"n": calls})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/published", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestResponseCacheKey(t *testing.T) {
	assert.Equal(t, "response:/api/writing/published", responseCacheKey("/api/writing/published", "", ""))
	assert.Equal(t, "response:/api/posts:limit=5:u1", responseCacheKey("/api/posts", "limit=5", "u1"))
}
