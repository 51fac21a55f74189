package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gmpdesk/gmp-dashboard/models"
	"github.com/gmpdesk/gmp-dashboard/shared"
	"github.com/sirupsen/logrus"
)

// FeedService pulls the GMP JSON feed. It owns the tuned HTTP client,
// the politeness pacer and the retry loop; callers see one FetchRecords
// call that either returns the full record slice or a classified error.
type FeedService struct {
	feedURL string
	client  *http.Client
	pacer   *shared.RequestPacer
	policy  shared.RetryPolicy
	logger  *logrus.Logger
}

var _ RecordSource = (*FeedService)(nil)

// NewFeedService creates a feed client for the given endpoint.
func NewFeedService(feedURL string, timeout, spacing time.Duration, policy shared.RetryPolicy) *FeedService {
	return &FeedService{
		feedURL: feedURL,
		client:  shared.NewFeedHTTPClient(timeout),
		pacer:   shared.NewRequestPacer(spacing),
		policy:  policy,
		logger:  logrus.StandardLogger(),
	}
}

// FetchRecords performs one full feed read. The returned slice keeps the
// provider's ordering untouched; the sort engine works on copies.
func (s *FeedService) FetchRecords(ctx context.Context) ([]models.GMPRecord, error) {
	started := time.Now()

	var records []models.GMPRecord
	err := shared.ExecuteWithRetry(ctx, s.policy, s.logger, "feed_fetch", func() error {
		fetched, fetchErr := s.fetchOnce(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		records = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"component": "feed_service",
		"records":   len(records),
		"duration":  time.Since(started),
	}).Info("Fetched GMP feed")
	return records, nil
}

func (s *FeedService) fetchOnce(ctx context.Context) ([]models.GMPRecord, error) {
	s.pacer.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, shared.NewNetworkError("feed_fetch", "could not build feed request", err)
	}
	shared.SetBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, shared.NewNetworkError("feed_fetch", "feed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, shared.NewStatusError("feed_fetch", resp.StatusCode)
	}

	var envelope models.FeedEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, shared.NewDecodeError("feed_fetch", err)
	}
	if envelope.Data == nil {
		return nil, shared.NewDecodeError("feed_fetch", fmt.Errorf("feed payload has no data array"))
	}
	return envelope.Data, nil
}
