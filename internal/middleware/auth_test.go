package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-key"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runMiddleware(token string) (*httptest.ResponseRecorder, *http.Request) {
	var captured *http.Request
	handler := NewAuth(testSecret).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gamification", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": 42,
		"email":   "ana@example.com",
		"name":    "Ana",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	rec, captured := runMiddleware(token)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, int64(42), captured.Context().Value("user_id"))
	assert.Equal(t, "ana@example.com", captured.Context().Value("user_email"))
	assert.Equal(t, "Ana", captured.Context().Value("user_name"))
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	rec, captured := runMiddleware("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestAuthMiddlewareWrongKey(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, "some-other-key")

	rec, captured := runMiddleware(token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}, testSecret)

	rec, captured := runMiddleware(token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestAuthMiddlewareMissingUserID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"email": "ana@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	rec, captured := runMiddleware(token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}
