package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the upstream API rate limit was
	// exceeded. The fetch layer backs off and retries; it never
	// surfaces to callers unless retries are exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a network-level failure (timeout, 5xx)
	// that is safe to retry.
	ErrTransient = errors.New("transient network error")

	// ErrMalformedRecord indicates an upstream record could not be
	// parsed. The record is counted and skipped; the page is not
	// retried for it.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrCacheCorrupted indicates a cache entry failed to decompress
	// or decode. Callers treat it as a miss after the entry has been
	// invalidated.
	ErrCacheCorrupted = errors.New("cache entry corrupted")

	// ErrPersistence indicates the durable store rejected a write.
	// This is fatal for the running job.
	ErrPersistence = errors.New("persistence failure")

	// ErrJobCancelled indicates the job was cancelled before reaching
	// a natural terminal state. Buffered records are flushed first.
	ErrJobCancelled = errors.New("job cancelled")
)
