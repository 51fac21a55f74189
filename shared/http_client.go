package shared

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// BrowserUserAgent is sent on every upstream request; the provider
// rejects default Go user agents.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RetryPolicy bounds the upstream retry loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the pacing the public feed tolerates.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// NewFeedHTTPClient builds the tuned client shared by the feed and
// scrape paths. Connection reuse matters here: the refresh job hits the
// same host for the lifetime of the process.
func NewFeedHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// SetBrowserHeaders makes the request look like a dashboard tab.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}

// ExecuteWithRetry runs fn until it succeeds, returns a non-retryable
// error, or exhausts the policy. Delays grow exponentially with jitter so
// parallel deployments do not hammer the provider in lockstep.
func ExecuteWithRetry(ctx context.Context, policy RetryPolicy, logger *logrus.Logger, operation string, fn func() error) error {
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		wait := delay
		if half := int64(delay) / 2; half > 0 {
			wait += time.Duration(rand.Int63n(half))
		}

		logger.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
			"retry_in":  wait,
		}).Warn("Upstream request failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return lastErr
}
