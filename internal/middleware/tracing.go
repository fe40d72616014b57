package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/artwall/storefront/pkg/telemetry"
)

// Tracing starts a server span per request, continuing any trace carried in
// the incoming headers.
func Tracing(p *telemetry.Provider) gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := p.StartSpan(ctx, c.Request.Method+" "+c.FullPath(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttribute("http.method", c.Request.Method)
		span.SetAttribute("http.client_ip", c.ClientIP())

		c.Request = c.Request.WithContext(ctx)
		if traceID := telemetry.TraceIDFromContext(ctx); traceID != "" {
			c.Header("X-Trace-ID", traceID)
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttribute("http.status_code", status)
		if status >= 500 && len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
	}
}
