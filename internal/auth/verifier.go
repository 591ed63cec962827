// Package auth verifies username/password credentials against the user
// store, with a small built-in fallback table for bootstrap and offline-demo
// use. The fallback is consulted only when the store lookup is unavailable
// or the username is absent; an existing store user always takes precedence,
// even with a wrong password.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"

	"github.com/iliyamo/notice-board/internal/repository"
	"github.com/iliyamo/notice-board/internal/session"
	"github.com/iliyamo/notice-board/internal/utils"
)

// ErrInvalidCredentials is deliberately generic: it never reveals whether
// the username or the password was wrong, to prevent user enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is the result of a successful verification. Source distinguishes
// store-backed authentication from a fallback-demo match.
type Identity struct {
	UserID   uint64
	Username string
	Email    string
	Role     string
	Source   string
}

// UserStore is the slice of the user repository the verifier needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (repository.User, error)
	TouchLastLogin(ctx context.Context, id uint64) error
}

// Verifier checks credentials. AllowFallback disables the demo table
// entirely (e.g. in production configuration).
type Verifier struct {
	Users         UserStore
	AllowFallback bool
}

func NewVerifier(users UserStore, allowFallback bool) *Verifier {
	return &Verifier{Users: users, AllowFallback: allowFallback}
}

// fallbackUser holds a demo credential. Passwords are kept as SHA-256
// digests so no plaintext sits in the binary's data section, and compared
// with subtle.ConstantTimeCompare.
type fallbackUser struct {
	id          uint64
	passwordSum string // hex SHA-256 of the password
	role        string
	email       string
}

var fallbackUsers = map[string]fallbackUser{
	"admin":      {1, "240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9", "admin", "admin@noticeboard.com"},
	"user":       {2, "e606e38b0d8c19b24cf0ee3808183162ea7cd63ff7912dbb22b5e803286b4446", "user", "user@noticeboard.com"},
	"john_doe":   {3, "ef92b778bafe771e89245b89ecbc08a44a4e166c06659911881f383d4473e94f", "user", "john.doe@example.com"},
	"jane_admin": {4, "becf77f3ec82a43422b7712134d1860e3205c6ce778b08417a7389b43f2b4661", "admin", "jane.admin@example.com"},
}

// Verify checks the supplied credentials and returns the matching identity.
// Store lookup first; the fallback table only fires when the store is
// unreachable or the username is unknown to it. On a store-backed success
// the user's last_login is touched best-effort: a failed touch is logged
// and never fails the login.
func (v *Verifier) Verify(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	u, err := v.Users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if u.Status != repository.UserActive {
			return Identity{}, ErrInvalidCredentials
		}
		if !utils.VerifyPassword(u.PasswordHash, password) {
			return Identity{}, ErrInvalidCredentials
		}
		if terr := v.Users.TouchLastLogin(ctx, u.ID); terr != nil {
			log.Printf("auth: last_login update failed for user %d: %v", u.ID, terr)
		}
		return Identity{
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
			Source:   session.SourceStore,
		}, nil

	case errors.Is(err, repository.ErrNotFound) || repository.IsUnavailable(err):
		if id, ok := v.verifyFallback(username, password); ok {
			return id, nil
		}
		return Identity{}, ErrInvalidCredentials

	default:
		return Identity{}, err
	}
}

func (v *Verifier) verifyFallback(username, password string) (Identity, bool) {
	if !v.AllowFallback {
		return Identity{}, false
	}
	fb, ok := fallbackUsers[username]
	if !ok {
		return Identity{}, false
	}
	sum := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(fb.passwordSum)) != 1 {
		return Identity{}, false
	}
	return Identity{
		UserID:   fb.id,
		Username: username,
		Email:    fb.email,
		Role:     fb.role,
		Source:   session.SourceFallback,
	}, true
}
