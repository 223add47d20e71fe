package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkeremcifci/CloudDrive/internal/config"
	"github.com/mkeremcifci/CloudDrive/internal/utils"
)

type contextKey string

const UserIDKey contextKey = "userID"

var ErrNoCredentials = errors.New("missing or invalid credentials")

var jwtSecret = config.Envs.JWTSecret

// Identity extracts and verifies the caller's JWT from the Authorization
// bearer header or the token cookie, returning the user id it carries.
func Identity(r *http.Request) (string, error) {
	tokenStr := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		tokenStr = strings.TrimPrefix(auth, "Bearer ")
	} else if c, err := r.Cookie("token"); err == nil {
		tokenStr = c.Value
	}
	if tokenStr == "" {
		return "", ErrNoCredentials
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrNoCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoCredentials
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", ErrNoCredentials
	}
	return userID, nil
}

// UserID returns the authenticated user id stored by AuthMiddleware.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDKey).(string)
	return id
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := Identity(r)
		if err != nil {
			utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
				Success: false,
				Message: "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
