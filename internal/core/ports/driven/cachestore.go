package driven

import (
	"context"
	"time"
)

// CacheStore is a compressed TTL cache for upstream responses and
// derived results. Backed by SQLite with gzip-compressed payloads.
//
// Expiry is lazy: entries past their TTL are treated as misses on read
// and removed at that point or by an explicit Sweep. A corrupted entry
// (failed decompression or decode) is invalidated and reported as a
// miss with domain.ErrCacheCorrupted; it never fails the caller's
// operation.
type CacheStore interface {
	// Get retrieves a cached value. Returns domain.ErrNotFound for a
	// miss (including expiry) and domain.ErrCacheCorrupted when the
	// entry existed but could not be decoded.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value under key with the given TTL, replacing any
	// existing entry. Concurrent writers to the same key are
	// serialised; last write wins.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes a single entry. Removing a missing key is
	// not an error.
	Invalidate(ctx context.Context, key string) error

	// InvalidatePattern removes all entries whose key matches the SQL
	// LIKE pattern (e.g. "page:%"). Returns the number removed.
	InvalidatePattern(ctx context.Context, pattern string) (int, error)

	// Sweep removes all expired entries. Returns the number removed.
	Sweep(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Stats reports cache occupancy and hit accounting.
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats describes cache state and usage since process start.
type CacheStats struct {
	// Entries is the number of live (unexpired) entries.
	Entries int

	// Expired is the number of expired entries not yet removed.
	Expired int

	// SizeBytes is the total compressed payload size on disk.
	SizeBytes int64

	// Hits and Misses count Get outcomes for this process.
	Hits   int64
	Misses int64
}
