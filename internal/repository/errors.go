// Package repository defines the error taxonomy shared by all data access
// code. These sentinel values and error types allow higher layers such as
// handlers to distinguish between different failure scenarios without
// string matching. Nothing below the handler layer swallows them or
// rewraps them into plain strings.
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrNotFound is returned when an operation references a row that does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned when the store cannot be reached. The repository
// never retries internally; the caller may retry later. Handlers should
// translate this into an HTTP 503 response.
var ErrUnavailable = errors.New("store unavailable")

// ConstraintError reports a uniqueness or foreign-key breach together with
// the identity of the violated constraint.
type ConstraintError struct {
	Constraint string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Constraint)
}

// ValidationError reports malformed input to a repository write. It is
// raised before any store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// classifyWrite maps MySQL errors on INSERT/UPDATE/DELETE to the taxonomy.
// The constraint name is supplied by the call site, which knows which unique
// index or foreign key the statement can trip.
func classifyWrite(err error, constraint string) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return ErrUnavailable
	}
	// 1062 duplicate entry, 1452 foreign key failure
	msg := err.Error()
	if strings.Contains(msg, "1062") || strings.Contains(msg, "1452") {
		return &ConstraintError{Constraint: constraint}
	}
	return err
}

// IsUnavailable reports whether err indicates the store is unreachable
// rather than a logical failure of the statement.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
