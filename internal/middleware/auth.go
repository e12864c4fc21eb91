package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrovision/cattle-api/internal/models"
	"github.com/agrovision/cattle-api/internal/store"
	"github.com/agrovision/cattle-api/internal/token"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
	CtxUser     = "user"
)

// RequireAuth verifies the bearer token and re-resolves the user so a
// token for a deleted account stops working immediately.
func RequireAuth(tokens *token.Service, users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.FindByUserID(c.Request.Context(), claims.UserID)
		if err == store.ErrNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxUser, user)

		c.Next()
	}
}

// RequireAdmin gates a route to admin users. It must run after
// RequireAuth and re-fetches the record so a role change takes effect
// without waiting for token expiry.
func RequireAdmin(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		user, err := users.FindByUserID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			return
		}

		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}
