package repository

import (
	"strings"
	"time"
)

// FilterAll is the wildcard value accepted by every enum field of Filter.
const FilterAll = "all"

// Filter narrows a notice search. All supplied fields combine with AND
// semantics. Enum fields accept "all" (or empty) as a wildcard. Search is a
// case-insensitive substring match against title OR content; the empty string
// trivially matches everything.
type Filter struct {
	Category string
	Priority string
	Status   string
	Search   string
	From     *time.Time // inclusive lower bound on created_at
	To       *time.Time // inclusive upper bound on created_at
	Limit    int        // 0 means no limit
	Offset   int
}

func wildcard(v string) bool {
	return v == "" || strings.EqualFold(v, FilterAll)
}

// EffectiveStatusAt returns the status a notice is treated as having at the
// given instant: a stored-active notice past its expiry reads as expired.
// The stored row is never rewritten here.
func (n *Notice) EffectiveStatusAt(now time.Time) string {
	if n.Status == StatusActive && n.ExpiresAt != nil && n.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return n.Status
}

// ReconcileStatus replaces each notice's stored status with its effective
// status at the given instant. It is the read-time transform applied to every
// result set leaving the repository, so a stale active row can never be
// observed past its expiry.
func ReconcileStatus(notices []Notice, now time.Time) {
	for i := range notices {
		notices[i].Status = notices[i].EffectiveStatusAt(now)
	}
}

// FilterByStatus keeps the notices whose (already reconciled) status matches
// want. A wildcard returns the input unchanged. Status filtering happens in
// memory, after reconciliation, precisely so that "status=active" excludes
// rows whose stored status is active but whose expiry has passed.
func FilterByStatus(notices []Notice, want string) []Notice {
	if wildcard(want) {
		return notices
	}
	out := notices[:0]
	for _, n := range notices {
		if strings.EqualFold(n.Status, want) {
			out = append(out, n)
		}
	}
	return out
}
