package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quicksign/quicksign/internal/config"
	"github.com/quicksign/quicksign/internal/models"
	"github.com/quicksign/quicksign/internal/tokens"
)

// UserLookup resolves a user by id. The admin middleware depends on this
// minimal function type rather than the users service to avoid an import cycle.
type UserLookup func(ctx context.Context, id string) (*models.User, error)

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens and
// stores the authenticated user id under "userId".
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		userID, err := tokens.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// AdminMiddleware rejects requests whose authenticated user is not an admin.
// Must run after AuthMiddleware.
func AdminMiddleware(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userId")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		u, err := lookup(c.Request.Context(), userID)
		if err != nil || u == nil || !u.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
