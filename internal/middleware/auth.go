package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const msgForbidden = "You do not have permission to perform this action."

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer access token and stores its claims in
// the context under handler.ContextClaims.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httputil.Failure("Authentication credentials were not provided."))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Failure("invalid authorization format"))
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Failure("invalid or expired token"))
			return
		}

		c.Set(handler.ContextClaims, claims)
		c.Next()
	}
}

// RequireAdmin lets through ADMIN users and superusers.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.require(func(a model.Actor) bool { return a.IsAdmin() })
}

// RequireRole lets through users holding exactly role.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return m.require(func(a model.Actor) bool { return a.Role == role })
}

func (m *AuthMiddleware) require(allowed func(model.Actor) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(handler.ContextClaims); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httputil.Failure("Authentication credentials were not provided."))
			return
		}
		if !allowed(handler.CurrentUser(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.Failure(msgForbidden))
			return
		}
		c.Next()
	}
}
