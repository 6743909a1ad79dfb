package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgauth "github.com/mailpilot/campaign-api/pkg/auth"
	"github.com/mailpilot/campaign-api/pkg/httputil"
	pkgerrors "github.com/mailpilot/campaign-api/pkg/errors"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

type TokenValidator interface {
	ValidateToken(token string) (*pkgauth.TokenClaims, error)
}

type AuthMiddleware struct {
	jwtSvc TokenValidator
}

func NewAuthMiddleware(jwtSvc TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

// Authenticate verifies the JWT token and sets user identity in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, pkgerrors.Unauthorized(nil))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, pkgerrors.Unauthorized(nil))
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, pkgerrors.Unauthorized(err))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// UserID extracts the authenticated user from the request context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// AbortUnauthenticated is the shared guard for handlers that require
// an identity but could not find one.
func AbortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
}
