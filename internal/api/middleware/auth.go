package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/logger"
	"github.com/yizhiakuya/MemeStore/internal/service"
)

const (
	// ContextUserID is the Gin context key holding the authenticated user ID.
	ContextUserID = "user_id"
	// ContextUsername is the Gin context key holding the authenticated username.
	ContextUsername = "username"
	// ContextRole is the Gin context key holding the authenticated user's role.
	ContextRole = "role"
)

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token and stores the caller's identity in both the Gin context and
// the request context.
func RequireAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header is required",
				"kind":  string(domain.KindUnauthorized),
			})
			return
		}

		claims, err := auth.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"kind":  string(domain.KindUnauthorized),
			})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		ctx := logger.SetUserID(c.Request.Context(), claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole returns a middleware that rejects authenticated callers whose
// role does not match. It must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
				"kind":  string(domain.KindUnauthorized),
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
