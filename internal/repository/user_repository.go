package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/notice-board/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Roles and account states as stored in the role/status columns.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	UserActive   = "active"
	UserInactive = "inactive"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. The password is hashed here so
// plaintext never travels further than this call.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, strings.ToLower(strings.TrimSpace(email)), hash, role)
	if err != nil {
		return 0, classifyWrite(err, "users.username/users.email unique")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username. Returns ErrNotFound when no
// such user exists and ErrUnavailable when the store cannot be reached, so
// the credential verifier can tell the two apart.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,status,created_at,last_login FROM users WHERE username=? LIMIT 1",
		strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		if IsUnavailable(err) {
			return User{}, ErrUnavailable
		}
		return User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,status,created_at,last_login FROM users WHERE id=? LIMIT 1",
		id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		if IsUnavailable(err) {
			return User{}, ErrUnavailable
		}
		return User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// TouchLastLogin records a successful authentication. Callers treat failures
// as best-effort: the login itself must not fail on a missed timestamp.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login=NOW() WHERE id=?", id)
	return err
}

// demoAccounts are seeded on first boot so the service is usable out of the
// box. Passwords match the credential verifier's fallback table.
var demoAccounts = []struct {
	Username, Email, Password, Role string
}{
	{"admin", "admin@noticeboard.com", "admin123", RoleAdmin},
	{"user", "user@noticeboard.com", "user123", RoleUser},
	{"john_doe", "john.doe@example.com", "password123", RoleUser},
	{"jane_admin", "jane.admin@example.com", "admin456", RoleAdmin},
}

// SeedDemoUsers inserts the demo accounts when the users table is empty.
// It is a no-op on a populated table.
func (r *UserRepo) SeedDemoUsers(ctx context.Context, bcryptCost int) error {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, a := range demoAccounts {
		if _, err := r.Create(ctx, a.Username, a.Email, a.Password, a.Role, bcryptCost); err != nil {
			return err
		}
	}
	return nil
}
