package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory classifies where in the pipeline a failure happened.
type ErrorCategory string

const (
	CategoryNetwork    ErrorCategory = "network"
	CategoryHTTPStatus ErrorCategory = "http_status"
	CategoryDecode     ErrorCategory = "decode"
	CategoryScrape     ErrorCategory = "scrape"
)

// Stable machine codes surfaced in API error envelopes.
const (
	CodeFeedUnreachable = "FEED_UNREACHABLE"
	CodeFeedBadStatus   = "FEED_BAD_STATUS"
	CodeFeedDecode      = "FEED_DECODE_FAILED"
	CodeScrapeFailed    = "SCRAPE_FAILED"
)

// ServiceError carries enough context to log, classify and surface a
// pipeline failure without anyone string-matching error text.
type ServiceError struct {
	Category   ErrorCategory
	Code       string
	Message    string
	Operation  string
	StatusCode int
	Retryable  bool
	Timestamp  time.Time
	Cause      error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s/%s]: %s: %v", e.Operation, e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [%s/%s]: %s", e.Operation, e.Category, e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// LogError writes the structured log record for this error.
func (e *ServiceError) LogError(logger *logrus.Logger) {
	fields := logrus.Fields{
		"category":  e.Category,
		"code":      e.Code,
		"operation": e.Operation,
		"retryable": e.Retryable,
	}
	if e.StatusCode != 0 {
		fields["status_code"] = e.StatusCode
	}
	if e.Cause != nil {
		fields["cause"] = e.Cause.Error()
	}
	logger.WithFields(fields).Error(e.Message)
}

// NewNetworkError wraps a transport-level failure (DNS, dial, timeout).
// Always retryable.
func NewNetworkError(operation, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:  CategoryNetwork,
		Code:      CodeFeedUnreachable,
		Message:   message,
		Operation: operation,
		Retryable: true,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewStatusError records a non-2xx upstream response. Server-side
// failures and throttling are worth retrying; client errors are not.
func NewStatusError(operation string, statusCode int) *ServiceError {
	return &ServiceError{
		Category:   CategoryHTTPStatus,
		Code:       CodeFeedBadStatus,
		Message:    fmt.Sprintf("upstream returned HTTP %d", statusCode),
		Operation:  operation,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 || statusCode == 429,
		Timestamp:  time.Now(),
	}
}

// NewDecodeError records a malformed payload. Not retryable: the
// provider is serving something this build cannot read, and asking again
// will not change that.
func NewDecodeError(operation string, cause error) *ServiceError {
	return &ServiceError{
		Category:  CategoryDecode,
		Code:      CodeFeedDecode,
		Message:   "upstream payload could not be decoded",
		Operation: operation,
		Retryable: false,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewScrapeError records a fallback table-scrape failure.
func NewScrapeError(operation, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:  CategoryScrape,
		Code:      CodeScrapeFailed,
		Message:   message,
		Operation: operation,
		Retryable: false,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// IsRetryable reports whether err (or anything it wraps) is a retryable
// ServiceError. Unknown error types are treated as transient transport
// faults.
func IsRetryable(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Retryable
	}
	return true
}

// ErrorMessage extracts the human-readable message for API envelopes,
// preferring the ServiceError message over the full error chain text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}
