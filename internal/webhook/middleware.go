package webhook

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const headerAPIKey = "X-Webhook-API-Key"

// APIKeyAuthMiddleware validates the X-Webhook-API-Key header against the
// configured key. An empty configured key disables the check.
func APIKeyAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		apiKey := c.GetHeader(headerAPIKey)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}
		if !keysEqual(apiKey, expected) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}

func keysEqual(given, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
