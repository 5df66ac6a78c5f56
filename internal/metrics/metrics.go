// Package metrics holds the Prometheus collectors of the API server.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec

	RateLimitExceededTotal *prometheus.CounterVec

	// Engagement
	TogglesTotal  *prometheus.CounterVec
	CommentsTotal *prometheus.CounterVec

	// Moderation / tagging gateway
	ModerationVerdicts *prometheus.CounterVec
	GatewayRequests    *prometheus.CounterVec
	GatewayDuration    *prometheus.HistogramVec

	EmailsTotal *prometheus.CounterVec

	// Real-time relay
	RelayConnections prometheus.Gauge
	RelayRooms       prometheus.Gauge
	RelayMessages    *prometheus.CounterVec

	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all collectors once.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_requests",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method"},
			),
			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),
			CacheOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cache_operation_duration_seconds",
					Help:    "Cache operation latency in seconds",
					Buckets: []float64{.0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "cache_name"},
			),
			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by a rate limiter",
				},
				[]string{"limiter", "path"},
			),
			TogglesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_toggles_total",
					Help: "Toggle operations by target and resulting state",
				},
				[]string{"target", "state"},
			),
			CommentsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "comments_created_total",
					Help: "Comments created by content type and flag state",
				},
				[]string{"content", "flagged"},
			),
			ModerationVerdicts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_verdicts_total",
					Help: "Moderation verdicts by label and source (model or fail_open)",
				},
				[]string{"verdict", "source"},
			),
			GatewayRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ai_gateway_requests_total",
					Help: "Generative AI gateway calls by operation and outcome",
				},
				[]string{"operation", "outcome"},
			),
			GatewayDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "ai_gateway_request_duration_seconds",
					Help:    "Generative AI gateway latency in seconds",
					Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20},
				},
				[]string{"operation"},
			),
			EmailsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "emails_sent_total",
					Help: "Transactional emails by kind and outcome",
				},
				[]string{"kind", "outcome"},
			),
			RelayConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "relay_connections",
					Help: "Open real-time relay connections",
				},
			),
			RelayRooms: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "relay_rooms",
					Help: "Rooms with at least one member",
				},
			),
			RelayMessages: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "relay_messages_total",
					Help: "Relay messages by type and direction",
				},
				[]string{"type", "direction"},
			),
			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "component"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordToggle(target string, active bool) {
	state := "removed"
	if active {
		state = "added"
	}
	Get().TogglesTotal.WithLabelValues(target, state).Inc()
}

func RecordComment(content string, flagged bool) {
	label := "false"
	if flagged {
		label = "true"
	}
	Get().CommentsTotal.WithLabelValues(content, label).Inc()
}

func RecordModerationVerdict(verdict string, failOpen bool) {
	source := "model"
	if failOpen {
		source = "fail_open"
	}
	Get().ModerationVerdicts.WithLabelValues(verdict, source).Inc()
}

func RecordGatewayCall(operation string, duration time.Duration, err error) {
	m := Get()
	m.GatewayRequests.WithLabelValues(operation, outcome(err)).Inc()
	m.GatewayDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordEmail(kind string, err error) {
	Get().EmailsTotal.WithLabelValues(kind, outcome(err)).Inc()
}

func RecordRelayMessage(msgType, direction string) {
	Get().RelayMessages.WithLabelValues(msgType, direction).Inc()
}

func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheOperation(operation, cacheName string, duration time.Duration) {
	Get().CacheOperationDuration.WithLabelValues(operation, cacheName).Observe(duration.Seconds())
}

func RecordRateLimitExceeded(limiter, path string) {
	Get().RateLimitExceededTotal.WithLabelValues(limiter, path).Inc()
}

func RecordError(errorType, component string) {
	Get().ErrorsTotal.WithLabelValues(errorType, component).Inc()
}
