package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// scriptedDB is a minimal database/sql driver for exercising the repository
// without a server. Each test enqueues the results the statements it expects
// should produce; every statement text is recorded so clauses like ordering
// and paging can be asserted.
type scriptedDB struct {
	execs   []execStep
	queries []queryStep
	seen    []string
}

type execStep struct {
	rows int64
	err  error
}

type queryStep struct {
	rows [][]driver.Value
	err  error
}

func (f *scriptedDB) Connect(context.Context) (driver.Conn, error) { return &scriptedConn{db: f}, nil }
func (f *scriptedDB) Driver() driver.Driver                        { return scriptedDriver{} }

type scriptedDriver struct{}

func (scriptedDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open via connector only")
}

type scriptedConn struct{ db *scriptedDB }

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not scripted")
}
func (c *scriptedConn) Close() error              { return nil }
func (c *scriptedConn) Begin() (driver.Tx, error) { return nil, errors.New("tx not scripted") }

func (c *scriptedConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.db.seen = append(c.db.seen, query)
	if len(c.db.execs) == 0 {
		return nil, errors.New("unexpected exec: " + query)
	}
	step := c.db.execs[0]
	c.db.execs = c.db.execs[1:]
	if step.err != nil {
		return nil, step.err
	}
	return scriptedResult{rows: step.rows}, nil
}

func (c *scriptedConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.db.seen = append(c.db.seen, query)
	if len(c.db.queries) == 0 {
		return nil, errors.New("unexpected query: " + query)
	}
	step := c.db.queries[0]
	c.db.queries = c.db.queries[1:]
	if step.err != nil {
		return nil, step.err
	}
	return &scriptedRows{rows: step.rows}, nil
}

type scriptedResult struct{ rows int64 }

func (r scriptedResult) LastInsertId() (int64, error) { return 1, nil }
func (r scriptedResult) RowsAffected() (int64, error) { return r.rows, nil }

type scriptedRows struct {
	rows [][]driver.Value
	next int
}

func (r *scriptedRows) Columns() []string {
	return []string{"id", "title", "content", "category", "priority", "status",
		"user_id", "username", "created_at", "updated_at", "expires_at"}
}
func (r *scriptedRows) Close() error { return nil }
func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

func scriptedRepo(f *scriptedDB) *NoticeRepo {
	return NewNoticeRepo(sql.OpenDB(f))
}

// noticeRow matches the column list every notice SELECT produces.
func noticeRow(id int64, status string, created time.Time, expires driver.Value) []driver.Value {
	return []driver.Value{id, "title", "content", "General", PriorityMedium, status,
		int64(1), "admin", created, created, expires}
}

func TestDeleteSecondCallNotFound(t *testing.T) {
	f := &scriptedDB{execs: []execStep{{rows: 1}, {rows: 0}}}
	repo := scriptedRepo(f)
	ctx := context.Background()

	if err := repo.Delete(ctx, 7); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.Delete(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSearchReturnsNewestFirst(t *testing.T) {
	now := time.Now().UTC()
	f := &scriptedDB{queries: []queryStep{{rows: [][]driver.Value{
		noticeRow(3, StatusActive, now, nil),
		noticeRow(2, StatusActive, now.Add(-time.Hour), nil),
		noticeRow(1, StatusActive, now.Add(-2*time.Hour), nil),
	}}}}
	repo := scriptedRepo(f)

	got, err := repo.Search(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("result not newest-first at index %d: %v after %v",
				i, got[i].CreatedAt, got[i-1].CreatedAt)
		}
	}
	if got[0].ID != 3 {
		t.Fatalf("head id = %d, want the latest creation (3)", got[0].ID)
	}
	if q := f.seen[0]; !strings.Contains(q, "ORDER BY n.created_at DESC, n.id DESC") {
		t.Fatalf("query missing descending order clause:\n%s", q)
	}
}

func TestSearchWildcardStatusPagesInSQL(t *testing.T) {
	now := time.Now().UTC()
	f := &scriptedDB{queries: []queryStep{{rows: [][]driver.Value{
		noticeRow(2, StatusActive, now, nil),
		noticeRow(1, StatusActive, now.Add(-time.Hour), nil),
	}}}}
	repo := scriptedRepo(f)

	if _, err := repo.Search(context.Background(), Filter{Limit: 2, Offset: 2}); err != nil {
		t.Fatalf("search: %v", err)
	}
	q := f.seen[0]
	if !strings.Contains(q, "LIMIT ?") || !strings.Contains(q, "OFFSET ?") {
		t.Fatalf("wildcard-status query should page in SQL:\n%s", q)
	}
}

// A status-filtered page is cut after reconciliation and the status match,
// so it holds exactly the requested window of matching notices even when
// stored-active rows turn out expired.
func TestSearchStatusFilterPagesAfterMatch(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	f := &scriptedDB{queries: []queryStep{{rows: [][]driver.Value{
		noticeRow(5, StatusActive, now, nil),
		noticeRow(4, StatusActive, now.Add(-time.Hour), past), // expired in effect
		noticeRow(3, StatusInactive, now.Add(-2*time.Hour), nil),
		noticeRow(2, StatusActive, now.Add(-3*time.Hour), nil),
		noticeRow(1, StatusActive, now.Add(-4*time.Hour), nil),
	}}}}
	repo := scriptedRepo(f)

	got, err := repo.Search(context.Background(), Filter{Status: StatusActive, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if q := f.seen[0]; strings.Contains(q, "LIMIT") {
		t.Fatalf("status-filtered query must not page in SQL:\n%s", q)
	}
	// Effective actives are 5, 2, 1; offset 1 + limit 2 selects 2 and 1.
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		ids := make([]uint64, 0, len(got))
		for _, n := range got {
			ids = append(ids, n.ID)
		}
		t.Fatalf("page ids = %v, want [2 1]", ids)
	}
}

func TestSearchStatusFilterOffsetPastEnd(t *testing.T) {
	now := time.Now().UTC()
	f := &scriptedDB{queries: []queryStep{{rows: [][]driver.Value{
		noticeRow(1, StatusActive, now, nil),
	}}}}
	repo := scriptedRepo(f)

	got, err := repo.Search(context.Background(), Filter{Status: StatusActive, Limit: 5, Offset: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want empty page", len(got))
	}
}
