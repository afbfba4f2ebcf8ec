package djen

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError represents an upstream 429 with the backoff state at
// the time it was raised.
type RateLimitError struct {
	RetryAfter time.Duration
	Level      int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("djen: rate limit exceeded, backing off %s (level %d)", e.RetryAfter, e.Level)
}

// APIError represents a non-retryable upstream error response.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("djen: API error %d (URL: %s)", e.StatusCode, e.URL)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
