package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/susumutomita/LabQuiz/internal/services"
)

const identityKey = "identity"

func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		ident, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Services re-check
// roles themselves; this keeps obvious 403s from ever reaching them.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := MustIdentity(c)
		for _, role := range roles {
			if ident.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// MustIdentity fetches the identity JWTAuth stored on the context. Routes
// using it are always behind JWTAuth.
func MustIdentity(c *gin.Context) services.Identity {
	ident, _ := c.Get(identityKey)
	id, _ := ident.(services.Identity)
	return id
}
