package openf1

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrClientClosed settles requests still queued when the client shuts down.
var ErrClientClosed = errors.New("openf1 client closed")

// APIError is a non-2xx upstream response other than a rate limit.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *APIError) Error() string {
	text := e.Status
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API Error %d: %s", e.StatusCode, text)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// RateLimitError is returned once the upstream keeps answering 429 beyond
// the throttle budget.
type RateLimitError struct {
	// Retryable indicates if the caller should schedule another attempt
	Retryable bool
	// RetryAfter is the earliest time a retry is expected to succeed
	RetryAfter time.Time
	Reason     string
	Attempts   int
	URL        string
}

func (e *RateLimitError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("rate limit %s after %d attempts (retryable, retry after %s)", e.Reason, e.Attempts, e.RetryAfter.Format(time.RFC3339))
	}
	return fmt.Sprintf("rate limit %s after %d attempts (non-retryable)", e.Reason, e.Attempts)
}

// IsRetryableRateLimitError checks if an error is a retryable rate limit error
func IsRetryableRateLimitError(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr) && rateLimitErr.Retryable
}

// IsRateLimitError checks if an error is any rate limit error
func IsRateLimitError(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// GetRateLimitError extracts RateLimitError from an error if present
func GetRateLimitError(err error) *RateLimitError {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr
	}
	return nil
}
