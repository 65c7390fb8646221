package auth

import (
	"net/http"
	"strings"

	"quantumspacewar/backend/pkg/token"

	"github.com/gin-gonic/gin"
)

// Tokens is the bearer-token store shared by the API middleware and
// the auth handlers. Set once at startup (and by tests).
var Tokens *token.Store

// bearerToken extracts the credential from an Authorization header.
// Both "Bearer <token>" and "Token <token>" schemes are accepted.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if parts[0] != "Bearer" && parts[0] != "Token" {
		return ""
	}
	return parts[1]
}

// AuthMiddleware creates a gin middleware that requires a valid bearer
// token and sets the authenticated userID on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := bearerToken(c)
		if t == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, err := Tokens.Lookup(c.Request.Context(), t)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("userID", userID)
		c.Set("authToken", t)
		c.Next()
	}
}
