package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"roombooking/internal/pkg/jwt"
)

func setupRouter(tokens *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.NewNop()))

	protected := r.Group("/", Auth(tokens))
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id")})
	})
	protected.GET("/staff", StaffOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	r := setupRouter(jwt.New("secret", time.Hour))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "garbage").Code)
}

func TestAuthAndRoles(t *testing.T) {
	tokens := jwt.New("secret", time.Hour)
	r := setupRouter(tokens)

	userTok, err := tokens.GenerateToken(7, jwt.RoleUser)
	require.NoError(t, err)
	staffTok, err := tokens.GenerateToken(8, jwt.RoleStaff)
	require.NoError(t, err)

	rr := do(r, "/me", userTok)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusForbidden, do(r, "/staff", userTok).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/staff", staffTok).Code)
}

func TestAccessLogRecoversPanics(t *testing.T) {
	r := setupRouter(jwt.New("secret", time.Hour))
	assert.Equal(t, http.StatusInternalServerError, do(r, "/panic", "").Code)
}
