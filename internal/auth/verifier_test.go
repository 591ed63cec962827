package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/notice-board/internal/repository"
	"github.com/iliyamo/notice-board/internal/session"
	"github.com/iliyamo/notice-board/internal/utils"
)

type stubUserStore struct {
	users       map[string]repository.User
	lookupErr   error
	touchErr    error
	touchedIDs  []uint64
	lookupCalls int
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]repository.User)}
}

func (s *stubUserStore) add(t *testing.T, username, password, role, status string) {
	t.Helper()
	hash, err := utils.HashPassword(password, 4) // min cost keeps tests fast
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	s.users[username] = repository.User{
		ID:           uint64(len(s.users) + 100),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
}

func (s *stubUserStore) GetByUsername(_ context.Context, username string) (repository.User, error) {
	s.lookupCalls++
	if s.lookupErr != nil {
		return repository.User{}, s.lookupErr
	}
	u, ok := s.users[username]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) TouchLastLogin(_ context.Context, id uint64) error {
	s.touchedIDs = append(s.touchedIDs, id)
	return s.touchErr
}

func TestVerify_StoreBacked(t *testing.T) {
	store := newStubUserStore()
	store.add(t, "carol", "s3cret", repository.RoleAdmin, repository.UserActive)
	v := NewVerifier(store, true)

	id, err := v.Verify(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if id.Role != repository.RoleAdmin {
		t.Fatalf("role = %q, want admin", id.Role)
	}
	if id.Source != session.SourceStore {
		t.Fatalf("source = %q, want store", id.Source)
	}
	if len(store.touchedIDs) != 1 || store.touchedIDs[0] != id.UserID {
		t.Fatalf("last_login not touched for user %d: %v", id.UserID, store.touchedIDs)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	store := newStubUserStore()
	store.add(t, "carol", "s3cret", repository.RoleUser, repository.UserActive)
	v := NewVerifier(store, true)

	// Every single-character mutation of the password must fail.
	for _, pw := range []string{"s3cres", "s3cret ", "S3cret", "s3cre", ""} {
		if _, err := v.Verify(context.Background(), "carol", pw); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("password %q: expected ErrInvalidCredentials, got %v", pw, err)
		}
	}
	if len(store.touchedIDs) != 0 {
		t.Fatalf("last_login touched on failed login")
	}
}

func TestVerify_InactiveAccount(t *testing.T) {
	store := newStubUserStore()
	store.add(t, "carol", "s3cret", repository.RoleUser, repository.UserInactive)
	v := NewVerifier(store, true)

	if _, err := v.Verify(context.Background(), "carol", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for inactive account, got %v", err)
	}
}

func TestVerify_TouchFailureDoesNotFailLogin(t *testing.T) {
	store := newStubUserStore()
	store.add(t, "carol", "s3cret", repository.RoleUser, repository.UserActive)
	store.touchErr = errors.New("write timeout")
	v := NewVerifier(store, true)

	if _, err := v.Verify(context.Background(), "carol", "s3cret"); err != nil {
		t.Fatalf("login failed on best-effort last_login update: %v", err)
	}
}

func TestVerify_FallbackOnUnknownUsername(t *testing.T) {
	v := NewVerifier(newStubUserStore(), true)

	id, err := v.Verify(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("fallback verify failed: %v", err)
	}
	if id.Source != session.SourceFallback {
		t.Fatalf("source = %q, want fallback", id.Source)
	}
	if id.Role != repository.RoleAdmin {
		t.Fatalf("role = %q, want admin", id.Role)
	}
}

func TestVerify_FallbackOnStoreUnavailable(t *testing.T) {
	store := newStubUserStore()
	store.lookupErr = repository.ErrUnavailable
	v := NewVerifier(store, true)

	id, err := v.Verify(context.Background(), "jane_admin", "admin456")
	if err != nil {
		t.Fatalf("fallback verify failed: %v", err)
	}
	if id.Source != session.SourceFallback || id.Role != repository.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerify_StoreUserTakesPrecedenceOverFallback(t *testing.T) {
	store := newStubUserStore()
	// A store-backed "admin" with a different password shadows the demo entry.
	store.add(t, "admin", "completely-different", repository.RoleAdmin, repository.UserActive)
	v := NewVerifier(store, true)

	if _, err := v.Verify(context.Background(), "admin", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("fallback must not fire for an existing store user, got %v", err)
	}
	id, err := v.Verify(context.Background(), "admin", "completely-different")
	if err != nil {
		t.Fatalf("store-backed verify failed: %v", err)
	}
	if id.Source != session.SourceStore {
		t.Fatalf("source = %q, want store", id.Source)
	}
}

func TestVerify_FallbackDisabled(t *testing.T) {
	v := NewVerifier(newStubUserStore(), false)

	if _, err := v.Verify(context.Background(), "admin", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials with fallback disabled, got %v", err)
	}
}

func TestVerify_EmptyInput(t *testing.T) {
	store := newStubUserStore()
	v := NewVerifier(store, true)

	if _, err := v.Verify(context.Background(), "", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := v.Verify(context.Background(), "admin", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.lookupCalls != 0 {
		t.Fatalf("store queried for empty credentials")
	}
}

func TestVerify_UnexpectedStoreErrorPropagates(t *testing.T) {
	store := newStubUserStore()
	store.lookupErr = errors.New("syntax error")
	v := NewVerifier(store, true)

	_, err := v.Verify(context.Background(), "admin", "admin123")
	if errors.Is(err, ErrInvalidCredentials) || err == nil {
		t.Fatalf("expected the store error to propagate, got %v", err)
	}
}
