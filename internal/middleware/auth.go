package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/auth"
	"github.com/neotogether/neotogether/internal/telemetry"
)

// ContextUserIDKey is the gin context key carrying the authenticated user id.
const ContextUserIDKey = "user_id"

// RequireAuth validates the bearer token and stores the authenticated user
// id on the context. Every failure mode answers the same 401 so callers
// cannot distinguish a missing header from a forged token.
func RequireAuth(opts auth.TokenOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c)
			return
		}

		userID, err := auth.VerifyAccessToken(opts, token)
		if err != nil {
			telemetry.LogFromContext(c.Request.Context()).
				WithError(err).Debug("Token verification failed")
			unauthorized(c)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"type":    "authentication",
			"code":    "AUTH_ERROR",
			"message": "Not authenticated.",
		},
	})
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
