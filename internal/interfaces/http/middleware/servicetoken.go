package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetiver-net/vetiver/internal/shared/utils"
)

// ServiceToken authenticates service-to-service callers such as node agents
// pushing usage reports. The key travels in the X-Service-Key header.
func ServiceToken(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "service authentication is not configured")
			c.Abort()
			return
		}

		provided := c.GetHeader("X-Service-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid service key")
			c.Abort()
			return
		}

		c.Next()
	}
}
