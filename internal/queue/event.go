// Package queue defines message payloads exchanged over the message broker.
package queue

// NoticePublishedEvent is published when an administrator creates a notice.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type NoticePublishedEvent struct {
	NoticeID    uint64 `json:"notice_id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	AuthorID    uint64 `json:"author_id"`
	Author      string `json:"author"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	PublishedAt string `json:"published_at"`
}
