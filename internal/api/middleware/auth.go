package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
)

const identityKey = "identity"

// RequireAuth verifies the bearer token and stashes the caller identity
// in the request context. The identity is trusted verbatim downstream.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing auth"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid format"})
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, auth.ErrTokenExpired) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"detail": "credential validation failed"})
			return
		}

		c.Set(identityKey, authz.Identity{
			UserID:   claims.Subject,
			Role:     claims.Role,
			Username: claims.Username,
			Email:    claims.Email,
		})
		c.Next()
	}
}

// IdentityFromContext returns the caller set by RequireAuth.
func IdentityFromContext(c *gin.Context) (authz.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return authz.Identity{}, false
	}
	id, ok := v.(authz.Identity)
	return id, ok
}

// CORS allows the web front end's preflight requests through.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PATCH, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
