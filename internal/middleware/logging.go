package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/pkg/httputil"
	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/telemetry"
)

// Logging logs every request and records its latency.
func Logging(log logger.Logger, metrics *telemetry.Metrics) gin.HandlerFunc {
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequest(c.Request.Context(), c.Request.Method, route, status, latency)

		fields := []logger.Field{
			logger.String("request_id", httputil.GetRequestID(c)),
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.String("query", query),
			logger.Int("status", status),
			logger.Duration("latency", latency),
			logger.String("client_ip", c.ClientIP()),
		}
		if profileID := httputil.GetProfileID(c); profileID != "" {
			fields = append(fields, logger.String("profile_id", profileID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.WithFields(fields...).Error("HTTP request error")
		case status >= 400:
			log.WithFields(fields...).Warn("HTTP request warning")
		default:
			log.WithFields(fields...).Info("HTTP request")
		}
	}
}
