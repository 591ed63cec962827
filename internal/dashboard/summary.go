// Package dashboard derives summary metrics from notice query results. It is
// a pure aggregation layer: no store access, no side effects.
package dashboard

import (
	"time"

	"github.com/iliyamo/notice-board/internal/repository"
)

// recentWindow bounds the "recent activity" count.
const recentWindow = 30 * 24 * time.Hour

// Summary holds the metrics the admin dashboard renders.
type Summary struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	ByPriority  map[string]int `json:"by_priority"`
	ByStatus    map[string]int `json:"by_status"`
	RecentCount int            `json:"recent_count"`
}

// Summarize aggregates a notice slice as of the given instant. Status counts
// use each notice's effective status so an expired-but-stored-active notice
// lands in the expired bucket. An empty slice is valid input and yields zero
// totals with empty (non-nil) maps.
func Summarize(notices []repository.Notice, now time.Time) Summary {
	s := Summary{
		ByCategory: make(map[string]int),
		ByPriority: make(map[string]int),
		ByStatus:   make(map[string]int),
	}
	cutoff := now.Add(-recentWindow)
	for i := range notices {
		n := &notices[i]
		s.Total++
		s.ByCategory[n.Category]++
		s.ByPriority[n.Priority]++
		s.ByStatus[n.EffectiveStatusAt(now)]++
		if n.CreatedAt.After(cutoff) {
			s.RecentCount++
		}
	}
	return s
}
