package middleware

import (
	"strings"

	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// CallerKey is the gin context key holding the authenticated JWT claims
const CallerKey = "caller"

// JWTAuthMiddleware authenticates the request via a Bearer token and stores
// the claims in the context. Every agent endpoint sits behind it.
func JWTAuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Error(errors.NewUnauthorizedError("UNAUTHENTICATED", "Missing or invalid Authorization header"))
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.Error(errors.NewUnauthorizedError("UNAUTHENTICATED", "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(CallerKey, claims)
		c.Set("userId", claims.UserID)
		c.Next()
	}
}

// CallerID extracts the authenticated user ID from the context, or empty
func CallerID(c *gin.Context) string {
	claims, exists := c.Get(CallerKey)
	if !exists {
		return ""
	}
	jwtClaims, ok := claims.(*jwt.JWTClaims)
	if !ok {
		return ""
	}
	return jwtClaims.UserID
}
