package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderUserID identifies the caller when no JWT secret is configured.
	HeaderUserID = "X-User-ID"

	userIDKey = "user_id"
)

var errMissingToken = errors.New("missing bearer token")

// RequireUser resolves the caller's user id. With a secret it expects an
// HS256 bearer token whose subject is the user id; without one it trusts
// the X-User-ID header.
func RequireUser(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var userID string
			if len(key) == 0 {
				userID = strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			} else {
				sub, err := subjectFromBearer(c.Request().Header.Get(echo.HeaderAuthorization), key)
				if err != nil {
					return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid or missing token", Internal: err}
				}
				userID = sub
			}
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the id RequireUser stored on the context.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func subjectFromBearer(header string, key []byte) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
