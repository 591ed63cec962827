package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Notice mirrors the 'notices' table joined with its author's username.
// Status carries the effective status on every read path (see
// ReconcileStatus); the stored column is not rewritten on read.
type Notice struct {
	ID        uint64     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	Priority  string     `json:"priority"`
	Status    string     `json:"status"`
	UserID    uint64     `json:"user_id"`
	Author    string     `json:"author,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Priority and status values as stored in the corresponding enum columns.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
)

const (
	maxTitleLen    = 255
	maxCategoryLen = 50
)

func validPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func validStatus(s string) bool {
	return s == StatusActive || s == StatusInactive || s == StatusExpired
}

// validateNotice checks the writable fields before any store call is made.
func validateNotice(title, content, category, priority, status string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if len(title) > maxTitleLen {
		return &ValidationError{Field: "title", Reason: "exceeds 255 characters"}
	}
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if len(category) > maxCategoryLen {
		return &ValidationError{Field: "category", Reason: "exceeds 50 characters"}
	}
	if !validPriority(priority) {
		return &ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	}
	if !validStatus(status) {
		return &ValidationError{Field: "status", Reason: "must be active, inactive or expired"}
	}
	return nil
}

// NoticeRepo manages persistence for notices.
type NoticeRepo struct {
	db *sql.DB
}

func NewNoticeRepo(db *sql.DB) *NoticeRepo { return &NoticeRepo{db: db} }

// Create validates and inserts a notice, returning the generated id.
// Priority defaults to medium and status to active when left empty.
// The owner reference is enforced by the notices.user_id foreign key.
func (r *NoticeRepo) Create(ctx context.Context, n *Notice) (uint64, error) {
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Status == "" {
		n.Status = StatusActive
	}
	if err := validateNotice(n.Title, n.Content, n.Category, n.Priority, n.Status); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notices (title, content, category, priority, status, user_id, expires_at)
		 VALUES (?,?,?,?,?,?,?)`,
		n.Title, n.Content, n.Category, n.Priority, n.Status, n.UserID, nullTime(n.ExpiresAt))
	if err != nil {
		return 0, classifyWrite(err, "notices.user_id -> users.id")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	n.ID = uint64(id)
	return n.ID, nil
}

// UpdateParams lists the fields a partial update may set. Nil pointers leave
// the stored value untouched. ExpiresAt distinguishes "leave alone" (nil)
// from "clear" (pointer to nil) via ClearExpiry.
type UpdateParams struct {
	Title       *string
	Content     *string
	Category    *string
	Priority    *string
	Status      *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// Update applies a partial update and refreshes updated_at. It returns
// ErrNotFound when the notice does not exist. An update that changes nothing
// is still a success: MySQL reports zero affected rows for identical values,
// so a zero count triggers an existence probe rather than an error.
func (r *NoticeRepo) Update(ctx context.Context, id uint64, p UpdateParams) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return &ValidationError{Field: "title", Reason: "must not be empty"}
		}
		if len(*p.Title) > maxTitleLen {
			return &ValidationError{Field: "title", Reason: "exceeds 255 characters"}
		}
		add("title", *p.Title)
	}
	if p.Content != nil {
		if strings.TrimSpace(*p.Content) == "" {
			return &ValidationError{Field: "content", Reason: "must not be empty"}
		}
		add("content", *p.Content)
	}
	if p.Category != nil {
		if strings.TrimSpace(*p.Category) == "" {
			return &ValidationError{Field: "category", Reason: "must not be empty"}
		}
		if len(*p.Category) > maxCategoryLen {
			return &ValidationError{Field: "category", Reason: "exceeds 50 characters"}
		}
		add("category", *p.Category)
	}
	if p.Priority != nil {
		if !validPriority(*p.Priority) {
			return &ValidationError{Field: "priority", Reason: "must be low, medium or high"}
		}
		add("priority", *p.Priority)
	}
	if p.Status != nil {
		if !validStatus(*p.Status) {
			return &ValidationError{Field: "status", Reason: "must be active, inactive or expired"}
		}
		add("status", *p.Status)
	}
	if p.ClearExpiry {
		set = append(set, "expires_at = NULL")
	} else if p.ExpiresAt != nil {
		add("expires_at", *p.ExpiresAt)
	}
	if len(set) == 0 {
		return &ValidationError{Field: "fields", Reason: "no fields to update"}
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	q := "UPDATE notices SET " + strings.Join(set, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return classifyWrite(err, "notices")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.exists(ctx, id)
}

// Delete removes a notice. A second delete of the same id fails with
// ErrNotFound; deletion is deliberately not idempotent.
func (r *NoticeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notices WHERE id = ?", id)
	if err != nil {
		if IsUnavailable(err) {
			return ErrUnavailable
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const noticeCols = `n.id, n.title, n.content, n.category, n.priority, n.status,
	n.user_id, COALESCE(u.username, ''), n.created_at, n.updated_at, n.expires_at`

// GetByID retrieves one notice with its author and reconciled status.
func (r *NoticeRepo) GetByID(ctx context.Context, id uint64) (Notice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noticeCols+` FROM notices n LEFT JOIN users u ON u.id = n.user_id WHERE n.id = ?`, id)
	n, err := scanNotice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notice{}, ErrNotFound
		}
		if IsUnavailable(err) {
			return Notice{}, ErrUnavailable
		}
		return Notice{}, err
	}
	n.Status = n.EffectiveStatusAt(time.Now().UTC())
	return n, nil
}

// Search returns notices matching the filter, newest first. Ordering by
// created_at descending is part of the contract: callers render "recent
// notices" straight from the head of the result. Category, priority, text
// and date bounds are pushed into SQL; status is matched in memory after
// effective-status reconciliation, and a status-filtered query pages in
// memory as well so Limit/Offset count only rows that survive the match.
func (r *NoticeRepo) Search(ctx context.Context, f Filter) ([]Notice, error) {
	where := []string{}
	args := []any{}

	if !wildcard(f.Category) {
		where = append(where, "n.category = ?")
		args = append(args, f.Category)
	}
	if !wildcard(f.Priority) {
		where = append(where, "n.priority = ?")
		args = append(args, f.Priority)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(LOWER(n.title) LIKE ? OR LOWER(n.content) LIKE ?)")
		pat := "%" + strings.ToLower(s) + "%"
		args = append(args, pat, pat)
	}
	if f.From != nil {
		where = append(where, "n.created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "n.created_at <= ?")
		args = append(args, *f.To)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT ` + noticeCols + `
		FROM notices n
		LEFT JOIN users u ON u.id = n.user_id
		WHERE ` + cond + `
		ORDER BY n.created_at DESC, n.id DESC`

	// Only wildcard-status queries page in SQL. A status-filtered query
	// drops rows after the fetch, so its page is cut after the match.
	pageInSQL := wildcard(f.Status)
	if pageInSQL && f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			q += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		if IsUnavailable(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	defer rows.Close()

	out := make([]Notice, 0, 16)
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ReconcileStatus(out, time.Now().UTC())
	out = FilterByStatus(out, f.Status)
	if !pageInSQL {
		out = page(out, f.Limit, f.Offset)
	}
	return out, nil
}

// page cuts an offset/limit window out of an already filtered slice.
func page(notices []Notice, limit, offset int) []Notice {
	if offset > 0 {
		if offset >= len(notices) {
			return notices[:0]
		}
		notices = notices[offset:]
	}
	if limit > 0 && limit < len(notices) {
		notices = notices[:limit]
	}
	return notices
}

func (r *NoticeRepo) exists(ctx context.Context, id uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM notices WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (Notice, error) {
	var (
		n         Notice
		expiresAt sql.NullTime
	)
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.Priority, &n.Status,
		&n.UserID, &n.Author, &n.CreatedAt, &n.UpdatedAt, &expiresAt)
	if err != nil {
		return Notice{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		n.ExpiresAt = &t
	}
	return n, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
