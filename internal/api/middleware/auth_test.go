package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkeremcifci/CloudDrive/internal/config"
)

func testToken(t *testing.T, userID string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.Envs.JWTSecret))
	require.NoError(t, err)
	return signed
}

func TestIdentityFromBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "u-42", time.Hour))

	id, err := Identity(req)
	require.NoError(t, err)
	assert.Equal(t, "u-42", id)
}

func TestIdentityFromCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: testToken(t, "u-42", time.Hour)})

	id, err := Identity(req)
	require.NoError(t, err)
	assert.Equal(t, "u-42", id)
}

func TestIdentityFailures(t *testing.T) {
	// Nothing at all.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := Identity(req)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Expired token.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "u-42", -time.Hour))
	_, err = Identity(req)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Garbage token.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	_, err = Identity(req)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestAuthMiddlewareStoresUserID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "u-7", time.Hour))
	rec := httptest.NewRecorder()
	AuthMiddleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-7", seen)
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
