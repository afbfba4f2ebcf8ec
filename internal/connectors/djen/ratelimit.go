package djen

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxBackoffLevel caps the exponent: 2^8 = 256s, just under the
	// absolute ceiling.
	maxBackoffLevel = 8

	// maxBackoff is the absolute ceiling for one backoff wait.
	maxBackoff = 300 * time.Second

	// baseBackoff is the unit the level shifts: wait = base << level.
	baseBackoff = time.Second
)

// RateLimiter combines three strategies against the upstream throttle:
// a paced delay between requests (token bucket), a sliding request
// window, and exponential backoff driven by 429 responses.
//
// Acquire is the pure decision: it never sleeps, so the window and
// backoff arithmetic are testable with a fake clock. Wait is the
// blocking wrapper used by the client.
type RateLimiter struct {
	mu           sync.Mutex
	maxRequests  int
	window       time.Duration
	history      []time.Time
	backoffLevel int
	blockedUntil time.Time

	totalRequests  int64
	totalThrottled int64

	bucket *rate.Limiter

	// now is the clock, overridable in tests.
	now func() time.Time
}

// RateStats is a snapshot of the limiter state.
type RateStats struct {
	RequestsInWindow int
	BackoffLevel     int
	TotalRequests    int64
	TotalThrottled   int64
	BlockedFor       time.Duration
}

// NewRateLimiter creates a limiter allowing maxRequests per sliding
// window, with delay pacing between consecutive requests.
func NewRateLimiter(maxRequests int, window, delay time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		bucket:      rate.NewLimiter(rate.Every(delay), 1),
		now:         time.Now,
	}
}

// Acquire decides whether a request may go out now. When it may not,
// it returns the duration after which the caller should try again.
// A successful acquisition decays the backoff level by one.
func (r *RateLimiter) Acquire() (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if now.Before(r.blockedUntil) {
		return false, r.blockedUntil.Sub(now)
	}

	// Drop history entries that slid out of the window.
	cut := now.Add(-r.window)
	i := 0
	for i < len(r.history) && !r.history[i].After(cut) {
		i++
	}
	r.history = r.history[i:]

	if len(r.history) >= r.maxRequests {
		return false, r.history[0].Add(r.window).Sub(now)
	}

	r.history = append(r.history, now)
	r.totalRequests++
	if r.backoffLevel > 0 {
		r.backoffLevel--
	}
	return true, 0
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	// Paced delay between consecutive requests.
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	for {
		ok, wait := r.Acquire()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// SignalRateLimited raises the backoff level after an upstream 429 and
// blocks further requests for the resulting wait. Returns that wait.
func (r *RateLimiter) SignalRateLimited() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backoffLevel < maxBackoffLevel {
		r.backoffLevel++
	}
	r.totalThrottled++

	wait := baseBackoff << r.backoffLevel
	if wait > maxBackoff {
		wait = maxBackoff
	}
	r.blockedUntil = r.now().Add(wait)
	return wait
}

// ResetBackoff clears the backoff state after sustained success.
func (r *RateLimiter) ResetBackoff() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backoffLevel = 0
	r.blockedUntil = time.Time{}
}

// Stats returns a snapshot of the limiter state.
func (r *RateLimiter) Stats() RateStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cut := now.Add(-r.window)
	inWindow := 0
	for _, ts := range r.history {
		if ts.After(cut) {
			inWindow++
		}
	}

	blocked := time.Duration(0)
	if now.Before(r.blockedUntil) {
		blocked = r.blockedUntil.Sub(now)
	}

	return RateStats{
		RequestsInWindow: inWindow,
		BackoffLevel:     r.backoffLevel,
		TotalRequests:    r.totalRequests,
		TotalThrottled:   r.totalThrottled,
		BlockedFor:       blocked,
	}
}
