package services

import (
	"context"
	"sync"
	"time"

	"github.com/gmpdesk/gmp-dashboard/models"
	"github.com/gmpdesk/gmp-dashboard/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RecordSource is anything that can produce a fresh record slice. The
// JSON feed is the primary source; the table scraper backs it up.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]models.GMPRecord, error)
}

const subscriberBuffer = 8

// SnapshotService is the cache-and-refresh controller. It owns the
// single cache entry, the IDLE/FETCHING/READY/ERROR state machine and
// the subscriber fan-out. All methods are safe for concurrent use.
type SnapshotService struct {
	feed     RecordSource
	fallback RecordSource // nil disables the scrape path
	window   time.Duration
	metrics  *shared.FetchMetrics
	logger   *logrus.Logger

	flight singleflight.Group

	mu          sync.RWMutex
	entry       *models.CacheEntry
	state       string
	lastErr     error
	subscribers map[uuid.UUID]chan models.UpdateEvent
	closed      bool
}

// NewSnapshotService creates an idle controller. window is how long a
// fetched entry satisfies non-forced refreshes; it doubles as the
// background refresh interval.
func NewSnapshotService(feed RecordSource, fallback RecordSource, window time.Duration) *SnapshotService {
	return &SnapshotService{
		feed:        feed,
		fallback:    fallback,
		window:      window,
		metrics:     shared.NewFetchMetrics(),
		logger:      logrus.StandardLogger(),
		state:       models.StateIdle,
		subscribers: make(map[uuid.UUID]chan models.UpdateEvent),
	}
}

// Refresh brings the cache up to date. With force false, an entry still
// inside the validity window short-circuits: no network request happens
// and the entry is republished to subscribers. Concurrent callers —
// forced or not — collapse into a single upstream fetch and share its
// outcome. On failure the previous entry stays servable.
func (s *SnapshotService) Refresh(ctx context.Context, force bool) (*models.CacheEntry, error) {
	if !force {
		if entry := s.freshEntry(); entry != nil {
			s.metrics.RecordCacheHit()
			state, _ := s.State()
			s.publish(models.UpdateEvent{
				Type:      models.EventRepublish,
				State:     state,
				EntryID:   entry.ID,
				Records:   len(entry.Records),
				Timestamp: time.Now(),
			})
			return entry, nil
		}
	} else {
		s.metrics.RecordForcedRefresh()
	}

	result, err, _ := s.flight.Do("refresh", func() (interface{}, error) {
		return s.fetchAndStore(ctx)
	})
	if err != nil {
		return s.Current(), err
	}
	return result.(*models.CacheEntry), nil
}

// Current returns the cache entry as-is, fresh or stale; nil before the
// first successful fetch.
func (s *SnapshotService) Current() *models.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry
}

// State reports the controller state and the surfaced error message,
// empty when the last refresh succeeded.
func (s *SnapshotService) State() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, shared.ErrorMessage(s.lastErr)
}

// Window returns the validity window refreshes honor.
func (s *SnapshotService) Window() time.Duration {
	return s.window
}

// Metrics exposes the fetch counters.
func (s *SnapshotService) Metrics() shared.MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Subscribe registers an update channel. The caller must Unsubscribe
// with the returned ID when done; after Close the returned channel is
// already closed.
func (s *SnapshotService) Subscribe() (uuid.UUID, <-chan models.UpdateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	ch := make(chan models.UpdateEvent, subscriberBuffer)
	if s.closed {
		close(ch)
		return id, ch
	}
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *SnapshotService) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Close tears down the subscriber set. Later events are discarded and
// later Subscribe calls get a closed channel.
func (s *SnapshotService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *SnapshotService) freshEntry() *models.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry != nil && s.entry.IsFresh(time.Now(), s.window) {
		return s.entry
	}
	return nil
}

func (s *SnapshotService) fetchAndStore(ctx context.Context) (*models.CacheEntry, error) {
	s.mu.Lock()
	s.state = models.StateFetching
	s.mu.Unlock()
	s.publish(models.UpdateEvent{
		Type:      models.EventFetching,
		State:     models.StateFetching,
		Timestamp: time.Now(),
	})

	started := time.Now()
	records, source, err := s.fetchWithFallback(ctx)
	if err != nil {
		s.metrics.RecordFailure()

		s.mu.Lock()
		s.state = models.StateError
		s.lastErr = err
		s.mu.Unlock()

		s.publish(models.UpdateEvent{
			Type:      models.EventError,
			State:     models.StateError,
			Error:     shared.ErrorMessage(err),
			Timestamp: time.Now(),
		})
		if svcErr, ok := err.(*shared.ServiceError); ok {
			svcErr.LogError(s.logger)
		} else {
			s.logger.WithError(err).Error("GMP refresh failed")
		}
		return nil, err
	}

	entry := &models.CacheEntry{
		ID:        uuid.New(),
		Records:   records,
		Source:    source,
		FetchedAt: time.Now(),
	}

	s.mu.Lock()
	s.entry = entry
	s.state = models.StateReady
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.RecordFetchSuccess(source == models.SourceScrape, time.Since(started))
	s.publish(models.UpdateEvent{
		Type:      models.EventReady,
		State:     models.StateReady,
		EntryID:   entry.ID,
		Records:   len(entry.Records),
		Timestamp: time.Now(),
	})

	s.logger.WithFields(logrus.Fields{
		"component": "snapshot_service",
		"records":   len(records),
		"source":    source,
		"entry_id":  entry.ID,
		"duration":  time.Since(started),
	}).Info("GMP snapshot updated")
	return entry, nil
}

func (s *SnapshotService) fetchWithFallback(ctx context.Context) ([]models.GMPRecord, string, error) {
	records, err := s.feed.FetchRecords(ctx)
	if err == nil {
		return records, models.SourceFeed, nil
	}
	if s.fallback == nil {
		return nil, "", err
	}

	s.logger.WithError(err).Warn("Feed fetch failed, trying the HTML table")
	fallbackRecords, fallbackErr := s.fallback.FetchRecords(ctx)
	if fallbackErr != nil {
		// Surface the primary failure; the fallback one is logged.
		s.logger.WithError(fallbackErr).Warn("Table fallback failed too")
		return nil, "", err
	}
	return fallbackRecords, models.SourceScrape, nil
}

// publish fans an event out without ever blocking on a slow subscriber.
func (s *SnapshotService) publish(event models.UpdateEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.WithField("subscriber", id).Warn("Dropping update for slow subscriber")
		}
	}
}
