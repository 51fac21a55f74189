package shared

import (
	"sync"
	"time"
)

// FetchMetrics counts controller activity for the status endpoint.
// All methods are safe for concurrent use.
type FetchMetrics struct {
	mu sync.RWMutex

	fetches         int64
	scrapeFallbacks int64
	cacheHits       int64
	forcedRefreshes int64
	failures        int64
	lastFetchAt     time.Time
	lastFetchTook   time.Duration
}

// NewFetchMetrics creates a zeroed counter set.
func NewFetchMetrics() *FetchMetrics {
	return &FetchMetrics{}
}

// RecordFetchSuccess counts a completed upstream fetch. usedFallback
// marks results recovered through the HTML table instead of the feed.
func (m *FetchMetrics) RecordFetchSuccess(usedFallback bool, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if usedFallback {
		m.scrapeFallbacks++
	}
	m.lastFetchAt = time.Now()
	m.lastFetchTook = took
}

// RecordCacheHit counts a refresh served from the validity window.
func (m *FetchMetrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// RecordForcedRefresh counts a refresh that bypassed the window.
func (m *FetchMetrics) RecordForcedRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forcedRefreshes++
}

// RecordFailure counts a refresh where no source produced records.
func (m *FetchMetrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// MetricsSnapshot is the read-side copy handed to handlers.
type MetricsSnapshot struct {
	Fetches         int64     `json:"fetches"`
	ScrapeFallbacks int64     `json:"scrape_fallbacks"`
	CacheHits       int64     `json:"cache_hits"`
	ForcedRefreshes int64     `json:"forced_refreshes"`
	Failures        int64     `json:"failures"`
	LastFetchAt     time.Time `json:"last_fetch_at"`
	LastFetchMillis int64     `json:"last_fetch_ms"`
}

// Snapshot returns a consistent copy of the counters.
func (m *FetchMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		Fetches:         m.fetches,
		ScrapeFallbacks: m.scrapeFallbacks,
		CacheHits:       m.cacheHits,
		ForcedRefreshes: m.forcedRefreshes,
		Failures:        m.failures,
		LastFetchAt:     m.lastFetchAt,
		LastFetchMillis: m.lastFetchTook.Milliseconds(),
	}
}
