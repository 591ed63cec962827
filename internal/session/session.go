// Package session holds the authenticated context for one client
// interaction. A Session is materialized per request by the JWT middleware,
// bound to the Echo context, and discarded with it; there is no process-wide
// session state. It is the single authorization gate: every mutating or
// admin-only handler goes through RequireRole before touching a repository.
package session

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
)

// Source tags how an identity was verified.
const (
	SourceStore    = "store"    // matched against a stored password hash
	SourceFallback = "fallback" // matched the built-in demo credential table
)

// ErrNoSession is returned when an operation requires authentication and the
// current context carries none.
var ErrNoSession = errors.New("no active session")

// ErrForbidden is returned when the session exists but its role is
// insufficient for the requested operation.
var ErrForbidden = errors.New("insufficient role")

// Session is the authenticated identity and role for one request.
type Session struct {
	UserID   uint64
	Username string
	Role     string
	Source   string
	IssuedAt time.Time
}

// Require fails with ErrNoSession when s is nil.
func (s *Session) Require() error {
	if s == nil {
		return ErrNoSession
	}
	return nil
}

// RequireRole checks the session role against a required role. An admin
// session satisfies a "user" requirement; the reverse does not hold.
func (s *Session) RequireRole(role string) error {
	if s == nil {
		return ErrNoSession
	}
	if s.Role == role || s.Role == "admin" {
		return nil
	}
	return ErrForbidden
}

const contextKey = "session"

// Bind attaches a session to the request context.
func Bind(c echo.Context, s *Session) {
	c.Set(contextKey, s)
}

// FromContext returns the session bound to the request, or nil.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}
