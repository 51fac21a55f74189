package shared

import (
	"sync"
	"time"
)

// RequestPacer enforces a minimum spacing between upstream requests so
// the dashboard stays a polite consumer of the public feed.
type RequestPacer struct {
	minInterval time.Duration
	lastRequest time.Time
	mu          sync.Mutex
}

// NewRequestPacer creates a pacer with the given minimum spacing. A zero
// or negative interval disables pacing.
func NewRequestPacer(minInterval time.Duration) *RequestPacer {
	return &RequestPacer{minInterval: minInterval}
}

// Wait blocks until the minimum interval since the previous request has
// elapsed, then claims the slot for the caller.
func (p *RequestPacer) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.minInterval <= 0 {
		p.lastRequest = time.Now()
		return
	}
	if !p.lastRequest.IsZero() {
		if elapsed := time.Since(p.lastRequest); elapsed < p.minInterval {
			time.Sleep(p.minInterval - elapsed)
		}
	}
	p.lastRequest = time.Now()
}
