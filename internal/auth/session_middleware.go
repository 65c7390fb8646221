package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionKeyUserID is the session key holding the signed-in user's ID.
const SessionKeyUserID = "user_id"

// SessionAuthMiddleware creates a gin middleware for the
// server-rendered surface. It requires a signed-in session and sets
// the userID on the context.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(SessionKeyUserID)
		userID, ok := raw.(uint)
		if !ok || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Login required",
				"redirect": "/site/login",
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalSessionMiddleware sets the userID when a session exists but
// lets anonymous requests through. The public guide pages use it to
// compute like-state for signed-in visitors.
func OptionalSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(SessionKeyUserID).(uint); ok && userID != 0 {
			c.Set("userID", userID)
		}
		c.Next()
	}
}
