package auth

import (
	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware inspects for a token and sets the userID if present and valid,
// but does not fail if the token is missing or invalid. List endpoints use it so that
// like-state can be computed for signed-in callers without locking anyone out.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t := bearerToken(c); t != "" {
			if userID, err := Tokens.Lookup(c.Request.Context(), t); err == nil {
				c.Set("userID", userID)
				c.Set("authToken", t)
			}
		}
		c.Next()
	}
}
