package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notice-board/internal/queue"
	"github.com/iliyamo/notice-board/internal/repository"
	queue_publisher "github.com/iliyamo/notice-board/internal/service"
	"github.com/iliyamo/notice-board/internal/session"
)

// NoticeHandler exposes the notice lifecycle over HTTP. Reads require any
// authenticated session; writes require the admin role. The role gate runs
// here, through the session, before any repository call; route middleware
// is a convenience on top, not the authority.
type NoticeHandler struct {
	Notices *repository.NoticeRepo
}

func NewNoticeHandler(n *repository.NoticeRepo) *NoticeHandler {
	if n == nil {
		panic("nil repository passed to NewNoticeHandler")
	}
	return &NoticeHandler{Notices: n}
}

type createNoticeReq struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"` // RFC3339 or "2006-01-02", optional
}

type updateNoticeReq struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Category  *string `json:"category"`
	Priority  *string `json:"priority"`
	Status    *string `json:"status"`
	ExpiresAt *string `json:"expires_at"` // empty string clears the expiry
}

// List returns notices matching the query filters, newest first.
// Recognized query params: category, priority, status (exact or "all"),
// search (substring over title/content), from, to (creation date bounds),
// limit, offset.
func (h *NoticeHandler) List(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.Require(); err != nil {
		return writeError(c, err)
	}

	f := repository.Filter{
		Category: c.QueryParam("category"),
		Priority: c.QueryParam("priority"),
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("search"),
	}
	if t, ok := parseTimeParam(c.QueryParam("from")); ok {
		f.From = &t
	}
	if t, ok := parseTimeParam(c.QueryParam("to")); ok {
		f.To = &t
	}
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(c.QueryParam("offset")); err == nil && n > 0 {
		f.Offset = n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Notices.Search(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get returns a single notice with its effective status.
func (h *NoticeHandler) Get(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.Require(); err != nil {
		return writeError(c, err)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notices.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// Create inserts a notice owned by the calling admin and publishes a
// notice.published event best-effort.
func (h *NoticeHandler) Create(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.RequireRole(repository.RoleAdmin); err != nil {
		return writeError(c, err)
	}

	var req createNoticeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	n := repository.Notice{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Category: strings.TrimSpace(req.Category),
		Priority: req.Priority,
		Status:   req.Status,
		UserID:   s.UserID,
	}
	if req.ExpiresAt != "" {
		t, ok := parseTimeParam(req.ExpiresAt)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expires_at"})
		}
		n.ExpiresAt = &t
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Notices.Create(ctx, &n)
	if err != nil {
		return writeError(c, err)
	}

	// Publish off the request path; a broker outage must not fail the write.
	ev := queue.NoticePublishedEvent{
		NoticeID:    id,
		Title:       n.Title,
		Category:    n.Category,
		Priority:    n.Priority,
		Status:      n.Status,
		AuthorID:    s.UserID,
		Author:      s.Username,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if n.ExpiresAt != nil {
		ev.ExpiresAt = n.ExpiresAt.UTC().Format(time.RFC3339)
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = queue_publisher.PublishNoticePublished(pctx, ev)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Update applies a partial update to an existing notice.
func (h *NoticeHandler) Update(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.RequireRole(repository.RoleAdmin); err != nil {
		return writeError(c, err)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateNoticeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	p := repository.UpdateParams{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Priority: req.Priority,
		Status:   req.Status,
	}
	if req.ExpiresAt != nil {
		if *req.ExpiresAt == "" {
			p.ClearExpiry = true
		} else {
			t, ok := parseTimeParam(*req.ExpiresAt)
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expires_at"})
			}
			p.ExpiresAt = &t
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notices.Update(ctx, id, p); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a notice. Deleting the same id twice fails the second time.
func (h *NoticeHandler) Delete(c echo.Context) error {
	s := session.FromContext(c)
	if err := s.RequireRole(repository.RoleAdmin); err != nil {
		return writeError(c, err)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notices.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// parseTimeParam accepts RFC3339 or a bare date.
func parseTimeParam(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
