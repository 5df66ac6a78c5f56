package middleware

import (
	"strconv"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware collects HTTP metrics for Prometheus.
// Requests are labelled by route template so path parameters don't explode cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		m.HTTPActiveConnections.WithLabelValues(method).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method).Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		// Numeric status so queries like status=~"5.." work
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
		if c.Writer.Status() >= 500 {
			metrics.RecordError("http_5xx", path)
		}
	}
}
