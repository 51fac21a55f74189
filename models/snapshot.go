package models

import (
	"time"

	"github.com/google/uuid"
)

// Controller states surfaced to the dashboard.
const (
	StateIdle     = "IDLE"
	StateFetching = "FETCHING"
	StateReady    = "READY"
	StateError    = "ERROR"
)

// Where a cache entry's records came from.
const (
	SourceFeed   = "feed"
	SourceScrape = "scrape"
)

// CacheEntry holds one complete feed result. Entries are replaced
// wholesale, never patched in place; the ID changes only when new data
// arrives, so consumers can tell a republished entry from a superseding
// one.
type CacheEntry struct {
	ID        uuid.UUID   `json:"id"`
	Records   []GMPRecord `json:"records"`
	Source    string      `json:"source"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// Age returns how long ago the entry was fetched.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// IsFresh reports whether the entry is still inside the validity window.
func (e *CacheEntry) IsFresh(now time.Time, window time.Duration) bool {
	return e.Age(now) < window
}

// Update event types pushed to subscribers.
const (
	EventFetching  = "fetching"
	EventReady     = "ready"
	EventError     = "error"
	EventRepublish = "republish"
)

// UpdateEvent tells subscribers what just happened so a UI can redraw
// without polling.
type UpdateEvent struct {
	Type      string    `json:"type"`
	State     string    `json:"state"`
	EntryID   uuid.UUID `json:"entry_id"`
	Records   int       `json:"records"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
