package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notice-board/internal/session"
)

// RequireRole aborts the request unless the bound session's role satisfies
// the required one (admin satisfies everything). It assumes JWTAuth ran
// earlier in the chain; without a session the request is rejected as
// unauthenticated rather than forbidden.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := session.FromContext(c)
			if err := s.RequireRole(role); err != nil {
				if errors.Is(err, session.ErrNoSession) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
