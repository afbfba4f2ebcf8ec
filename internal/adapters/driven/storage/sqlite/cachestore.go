package sqlite

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
)

// keyStripes is the number of per-key write locks. Writers to the same
// key always hit the same stripe, so last write wins without torn rows.
const keyStripes = 64

// cacheStore implements driven.CacheStore with gzip-compressed
// payloads and lazy expiry.
type cacheStore struct {
	store *Store
	locks [keyStripes]sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64

	// now is swappable for expiry tests.
	now func() time.Time
}

var _ driven.CacheStore = (*cacheStore)(nil)

func newCacheStore(s *Store) *cacheStore {
	return &cacheStore{store: s, now: time.Now}
}

func (c *cacheStore) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key)) //nolint:errcheck // fnv never fails
	return &c.locks[h.Sum32()%keyStripes]
}

// Get retrieves and decompresses a cached value. Expired entries are
// removed on the way out and reported as misses. A payload that fails
// to decompress is invalidated and reported as corrupted; the caller
// treats that as a miss too.
func (c *cacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	var expiresAt int64
	err := c.store.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM cache WHERE key = ?", key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		c.misses.Add(1)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	if c.now().UnixNano() >= expiresAt {
		c.misses.Add(1)
		_ = c.Invalidate(ctx, key)
		return nil, domain.ErrNotFound
	}

	value, err := gunzip(payload)
	if err != nil {
		c.misses.Add(1)
		_ = c.Invalidate(ctx, key)
		return nil, fmt.Errorf("%w: key %s: %w", domain.ErrCacheCorrupted, key, err)
	}

	c.hits.Add(1)
	return value, nil
}

// Put compresses and stores a value, replacing any existing entry.
func (c *cacheStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	payload, err := gzipBytes(value)
	if err != nil {
		return fmt.Errorf("compressing cache entry: %w", err)
	}
	expiresAt := c.now().Add(ttl).UnixNano()

	mu := c.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO cache (key, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at
	`, key, payload, expiresAt)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Invalidate removes a single entry. Missing keys are not an error.
func (c *cacheStore) Invalidate(ctx context.Context, key string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("invalidating cache entry: %w", err)
	}
	return nil
}

// InvalidatePattern removes entries whose key matches the SQL LIKE
// pattern and returns how many were removed.
func (c *cacheStore) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	res, err := c.store.db.ExecContext(ctx, "DELETE FROM cache WHERE key LIKE ?", pattern)
	if err != nil {
		return 0, fmt.Errorf("invalidating cache pattern: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(n), nil
}

// Sweep removes all expired entries and returns how many were removed.
func (c *cacheStore) Sweep(ctx context.Context) (int, error) {
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM cache WHERE expires_at <= ?", c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sweeping cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(n), nil
}

// Clear removes every entry.
func (c *cacheStore) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cache"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Stats reports occupancy and the process-lifetime hit counters.
func (c *cacheStore) Stats(ctx context.Context) (driven.CacheStats, error) {
	stats := driven.CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	now := c.now().UnixNano()
	err := c.store.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(LENGTH(payload)), 0)
		FROM cache
	`, now, now).Scan(&stats.Entries, &stats.Expired, &stats.SizeBytes)
	if err != nil {
		return driven.CacheStats{}, fmt.Errorf("querying cache stats: %w", err)
	}
	return stats, nil
}

func gzipBytes(value []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(value); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
