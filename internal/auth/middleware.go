package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

const callerKey = "caller"

// Bearer enforces bearer JWT tokens signed with HS256 and attaches the
// parsed caller to the context.
func Bearer(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}
		role, _ := ParseRole(claims.Role)
		c.Set(callerKey, Caller{UserID: userID, Email: claims.Email, Role: role})
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CallerFrom extracts the authenticated caller from the gin context.
func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}
