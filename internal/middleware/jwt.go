// Package middleware provides reusable HTTP middleware: bearer-token
// authentication, role enforcement and login rate limiting.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notice-board/internal/session"
)

// JWTAuth validates a Bearer access token and binds a session.Session built
// from its claims to the request context. The secret must match the one used
// when issuing tokens. Handlers downstream read the session via
// session.FromContext and gate themselves with RequireRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			s := sessionFromClaims(claims)
			if s == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			session.Bind(c, s)
			return next(c)
		}
	}
}

// sessionFromClaims rebuilds the per-request session from token claims.
// JWT numbers decode as float64.
func sessionFromClaims(claims jwt.MapClaims) *session.Session {
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return nil
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil
	}
	s := &session.Session{
		UserID: uint64(sub),
		Role:   role,
	}
	if v, ok := claims["username"].(string); ok {
		s.Username = v
	}
	if v, ok := claims["src"].(string); ok {
		s.Source = v
	}
	if v, ok := claims["iat"].(float64); ok {
		s.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	return s
}
