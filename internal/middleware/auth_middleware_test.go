package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier map[string]string

func (v staticVerifier) ValidateToken(_ context.Context, token string) (string, error) {
	identity, ok := v[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return identity, nil
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware(logger.NewNop()), LoggingMiddleware(logger.NewNop()))
	router.GET("/me", AuthRequired(staticVerifier{"good": "jane@example.com"}), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(IdentityKey))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return router
}

func TestAuthRequired(t *testing.T) {
	router := setupAuthRouter()

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"bearer header", "/me", "Bearer good", http.StatusOK, "jane@example.com"},
		{"lowercase scheme", "/me", "bearer good", http.StatusOK, "jane@example.com"},
		{"query token", "/me?token=good", "", http.StatusOK, "jane@example.com"},
		{"missing", "/me", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/me", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "/me", "Bearer bad", http.StatusUnauthorized, ""},
		{"header wins over query", "/me?token=good", "Bearer bad", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestAuthRequired_WithJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := utils.GenerateAccessToken("jane@example.com", "jane", "secret", utils.JWTAccessTokenTTL)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", AuthRequired(jwtVerifier("secret")), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(IdentityKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@example.com", w.Body.String())
}

type jwtVerifier string

func (secret jwtVerifier) ValidateToken(_ context.Context, token string) (string, error) {
	return utils.ExtractIdentityFromToken(token, string(secret))
}

func TestRequestIDMiddleware(t *testing.T) {
	router := setupAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := setupAuthRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://app.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
