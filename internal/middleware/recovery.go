package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/pkg/errors"
	"github.com/artwall/storefront/pkg/httputil"
	"github.com/artwall/storefront/pkg/logger"
)

// Recovery turns a panic in a handler into a 500 response.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(
					logger.String("request_id", httputil.GetRequestID(c)),
					logger.String("panic", fmt.Sprintf("%v", r)),
					logger.String("stack", string(debug.Stack())),
				).Error("Panic recovered")

				httputil.AbortWithError(c, errors.ErrInternal)
			}
		}()

		c.Next()
	}
}
