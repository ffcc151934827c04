package middleware

import (
	"crypto/subtle" // Constant-time secret comparison
	"net/http"      // HTTP status codes
	"strings"       // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework
)

// InternalOnlyMiddleware guards endpoints meant for the scheduler and other
// internal callers with a shared bearer secret
func InternalOnlyMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Refuse everything if no secret is configured
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ") // Extract the presented secret
		// Compare against the configured secret
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next() // Proceed to the next handler
	}
}
