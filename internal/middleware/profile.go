package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/pkg/httputil"
	"github.com/artwall/storefront/pkg/logger"
)

// ProfileHeader carries the browser profile a request acts for.
const ProfileHeader = "X-Profile-ID"

// Profile resolves the browser profile from ProfileHeader, falling back to
// defaultProfile, and stores it on the gin and request contexts. The value
// is validated by the favorites service.
func Profile(defaultProfile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID := strings.TrimSpace(c.GetHeader(ProfileHeader))
		if profileID == "" {
			profileID = defaultProfile
		}

		c.Set(httputil.ProfileIDKey, profileID)
		ctx := logger.WithRequestID(c.Request.Context(), c.GetString(httputil.RequestIDKey))
		c.Request = c.Request.WithContext(logger.WithProfileID(ctx, profileID))

		c.Next()
	}
}
