package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/notice-board/internal/dashboard"
	"github.com/iliyamo/notice-board/internal/repository"
	"github.com/iliyamo/notice-board/internal/session"
)

const statsCacheKey = "dashboard:summary"

// DashboardHandler serves admin statistics. The summary is computed from a
// full notice fetch and cached briefly in Redis; with a nil client every
// request recomputes, which is fine for a single instance.
type DashboardHandler struct {
	Notices  *repository.NoticeRepo
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewDashboardHandler(n *repository.NoticeRepo, rdb *redis.Client, ttl time.Duration) *DashboardHandler {
	return &DashboardHandler{Notices: n, Redis: rdb, CacheTTL: ttl}
}

// Stats returns total, per-category, per-priority and per-effective-status
// counts plus the number of notices created in the last 30 days.
func (h *DashboardHandler) Stats(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.RequireRole(repository.RoleAdmin); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if h.Redis != nil {
		if cached, err := h.Redis.Get(ctx, statsCacheKey).Bytes(); err == nil {
			return c.JSONBlob(http.StatusOK, cached)
		}
	}

	notices, err := h.Notices.Search(ctx, repository.Filter{})
	if err != nil {
		return writeError(c, err)
	}
	summary := dashboard.Summarize(notices, time.Now().UTC())

	if h.Redis != nil {
		if body, err := json.Marshal(summary); err == nil {
			_ = h.Redis.Set(ctx, statsCacheKey, body, h.CacheTTL).Err()
		}
	}
	return c.JSON(http.StatusOK, summary)
}
