package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/handlers"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/middleware"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/validation"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routerDeps is everything the HTTP surface is assembled from.
type routerDeps struct {
	ClientURL string
	Tracing   bool
	Validator *validation.ServiceValidator
	Search    *search.Service
	Relay     *websocket.Handler
	Auth      *handlers.AuthHandlers
	Handlers  *handlers.Handlers
	Media     storage.MediaUploader
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if d.Tracing {
		r.Use(middleware.TracingMiddleware(serviceName)...)
	}
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{d.ClientURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Cache"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	r.GET("/health", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		statuses, healthy := d.Validator.Report(checkCtx)
		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":    state,
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
			"services":  statuses,
			"search":    d.Search.Enabled(),
		})
	})
	r.GET("/health/ws", d.Relay.StatsHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", d.Relay.HandleWebSocket)

	if local, ok := d.Media.(*storage.LocalUploader); ok {
		r.Static("/uploads", local.Dir())
	}

	api := r.Group("/api", middleware.RateLimit())
	d.Auth.RegisterRoutes(api, middleware.RateLimitAuth())
	d.Handlers.RegisterRoutes(api, handlers.RouteConfig{
		RequireAuth:   d.Auth.AuthMiddleware(),
		OptionalAuth:  d.Auth.OptionalAuthMiddleware(),
		UploadLimiter: middleware.RateLimitUpload(),
	})
	return r
}
