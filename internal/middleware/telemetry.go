package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns otelgin followed by a handler that decorates the
// request span with the caller and route parameters. Use with router.Use(chain...).
func TracingMiddleware(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{otelgin.Middleware(serviceName), spanAttributes}
}

// spanAttributes runs inside the otelgin span, so attributes set after c.Next
// land before the span ends.
func spanAttributes(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	if userID := c.GetString("user_id"); userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}
	for _, p := range c.Params {
		span.SetAttributes(attribute.String("route.param."+p.Key, p.Value))
	}
	for _, ginErr := range c.Errors {
		if ginErr.Err != nil {
			span.RecordError(ginErr.Err)
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}
