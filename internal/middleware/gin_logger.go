package middleware

import (
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinLoggerMiddleware logs every HTTP request with structured fields.
// It replaces gin.Logger; the level follows the response status.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("route", c.FullPath()),
			logger.WithIP(c.ClientIP()),
			logger.WithStatus(status),
			zap.Int("response_size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if requestID := c.GetString("request_id"); requestID != "" {
			fields = append(fields, logger.WithRequestID(requestID))
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields = append(fields, logger.WithUserID(userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Log.Error("HTTP request", fields...)
		case status >= 400:
			logger.Log.Warn("HTTP request", fields...)
		default:
			logger.Log.Info("HTTP request", fields...)
		}
	}
}
