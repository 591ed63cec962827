package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notice-board/internal/auth"
	"github.com/iliyamo/notice-board/internal/config"
	"github.com/iliyamo/notice-board/internal/repository"
	"github.com/iliyamo/notice-board/internal/session"
	"github.com/iliyamo/notice-board/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Verifier *auth.Verifier
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, v *auth.Verifier, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Verifier: v, Users: u, Tokens: t}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Source   string `json:"source"` // store | fallback
}
type authResp struct {
	User    userPart   `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh *tokenPart `json:"refresh,omitempty"`
}

// Login verifies credentials and returns a token pair. Fallback-demo logins
// get an access token only: refresh tokens reference users.id, which a
// fallback identity may not have.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Verifier.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id.UserID, id.Username, id.Role, id.Source, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	resp := authResp{
		User:   userPart{ID: id.UserID, Username: id.Username, Email: id.Email, Role: id.Role, Source: id.Source},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	}
	if id.Source == session.SourceStore {
		refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
		if err != nil {
			return writeError(c, err)
		}
		if err := h.Tokens.Store(ctx, id.UserID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
			return writeError(c, err)
		}
		resp.Refresh = &tokenPart{Token: refresh.Raw, Expires: refresh.Exp} // raw back to client
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.Validate(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.Revoke(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	if u.Status != repository.UserActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, u.Role, session.SourceStore, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Tokens.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, Source: session.SourceStore},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: &tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Logout ends the caller's session. With a refresh_token in the body only
// that token is revoked; otherwise every refresh token of the user is.
// Fallback sessions have nothing stored, so there is nothing to revoke.
func (h *AuthHandler) Logout(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.Require(); err != nil {
		return writeError(c, err)
	}

	var req refreshReq
	_ = c.Bind(&req)
	token := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if s.Source == session.SourceFallback {
		return c.NoContent(http.StatusNoContent)
	}
	if token != "" {
		if err := h.Tokens.Revoke(ctx, utils.HashRefreshRaw(token)); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.Tokens.RevokeAllForUser(ctx, s.UserID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's session identity.
func (h *AuthHandler) Me(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.Require(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, userPart{
		ID:       s.UserID,
		Username: s.Username,
		Role:     s.Role,
		Source:   s.Source,
	})
}
