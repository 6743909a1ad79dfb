package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/mailpilot/campaign-api/pkg/auth"
)

type stubValidator struct {
	claims *pkgauth.TokenClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*pkgauth.TokenClaims, error) {
	return v.claims, v.err
}

func newAuthRouter(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(v).Authenticate())
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			AbortUnauthenticated(c)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id.String()})
	})
	return r
}

func TestAuthenticateValidToken(t *testing.T) {
	userID := uuid.New()
	r := newAuthRouter(stubValidator{claims: &pkgauth.TokenClaims{UserID: userID, Email: "ann@example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthenticateMissingHeader(t *testing.T) {
	r := newAuthRouter(stubValidator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	r := newAuthRouter(stubValidator{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectedToken(t *testing.T) {
	r := newAuthRouter(stubValidator{err: errors.New("expired")})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
