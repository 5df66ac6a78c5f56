package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_StatusCodesAreNumeric(t *testing.T) {
	m := metrics.Initialize()
	m.HTTPRequestsTotal.Reset()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/posts/:id", func(c *gin.Context) {
		switch c.Param("id") {
		case "missing":
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case "broken":
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		}
	})

	for _, id := range []string{"a", "b", "missing", "broken"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "500")))
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	m := metrics.Initialize()
	m.HTTPRequestsTotal.Reset()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
