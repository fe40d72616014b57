package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/pkg/errors"
	"github.com/artwall/storefront/pkg/httputil"
	"github.com/artwall/storefront/pkg/logger"
)

// Limiter decides whether identity may perform one more action.
type Limiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

// QuotaReporter is implemented by limiters that can report the allowance
// left, which RateLimit exposes as X-RateLimit-* headers.
type QuotaReporter interface {
	Limit() int64
	Remaining(ctx context.Context, identity string) (int64, error)
}

// RateLimit rejects requests once the profile has exhausted its allowance.
// A limiter failure lets the request through.
func RateLimit(limiter Limiter, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httputil.GetProfileID(c)
		if identity == "" {
			identity = c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), identity)
		if err != nil {
			log.WithContext(c.Request.Context()).Warn("rate limiter unavailable", logger.Error(err))
			c.Next()
			return
		}
		if q, ok := limiter.(QuotaReporter); ok {
			setQuotaHeaders(c, q, identity)
		}
		if !allowed {
			httputil.AbortWithError(c, errors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}

func setQuotaHeaders(c *gin.Context, q QuotaReporter, identity string) {
	remaining, err := q.Remaining(c.Request.Context(), identity)
	if err != nil {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.FormatInt(q.Limit(), 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
}
