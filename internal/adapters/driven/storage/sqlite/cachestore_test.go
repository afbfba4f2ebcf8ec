package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

// setupCacheStore returns the concrete cache store with a controllable
// clock.
func setupCacheStore(t *testing.T) (*cacheStore, *time.Time, func()) {
	t.Helper()
	store, cleanup := setupTestStore(t)

	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	store.cache.now = func() time.Time { return now }
	return store.cache, &now, cleanup
}

// TestCacheStore_PutGet tests the compressed round trip.
func TestCacheStore_PutGet(t *testing.T) {
	cache, _, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	value := []byte(`{"count":42,"items":[]}`)
	require.NoError(t, cache.Put(ctx, "page:abc", value, time.Hour))

	got, err := cache.Get(ctx, "page:abc")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	_, err = cache.Get(ctx, "page:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestCacheStore_Replace tests that rewriting a key keeps the latest
// value only.
func TestCacheStore_Replace(t *testing.T) {
	cache, _, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("first"), time.Hour))
	require.NoError(t, cache.Put(ctx, "k", []byte("second"), time.Hour))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

// TestCacheStore_Expiry tests lazy TTL expiry at the boundary.
func TestCacheStore_Expiry(t *testing.T) {
	cache, now, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("v"), time.Minute))

	// Just inside the TTL.
	*now = now.Add(time.Minute - time.Nanosecond)
	_, err := cache.Get(ctx, "k")
	assert.NoError(t, err)

	// At the boundary the entry is expired.
	*now = now.Add(time.Nanosecond)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The expired row was removed on read.
	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, 0, stats.Expired)
}

// TestCacheStore_Corruption tests that an undecodable payload is
// reported as corrupted once and then behaves as a miss.
func TestCacheStore_Corruption(t *testing.T) {
	cache, _, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	// Write garbage bytes directly, bypassing compression.
	expires := cache.now().Add(time.Hour).UnixNano()
	_, err := cache.store.db.ExecContext(ctx,
		"INSERT INTO cache (key, payload, expires_at) VALUES (?, ?, ?)",
		"bad", []byte("not gzip"), expires)
	require.NoError(t, err)

	_, err = cache.Get(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrCacheCorrupted)

	// The entry was invalidated; subsequent reads are plain misses.
	_, err = cache.Get(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestCacheStore_InvalidatePattern tests LIKE-based removal.
func TestCacheStore_InvalidatePattern(t *testing.T) {
	cache, _, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "page:1", []byte("a"), time.Hour))
	require.NoError(t, cache.Put(ctx, "page:2", []byte("b"), time.Hour))
	require.NoError(t, cache.Put(ctx, "query:1", []byte("c"), time.Hour))

	removed, err := cache.InvalidatePattern(ctx, "page:%")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = cache.Get(ctx, "page:1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = cache.Get(ctx, "query:1")
	assert.NoError(t, err)
}

// TestCacheStore_Sweep tests bulk removal of expired entries.
func TestCacheStore_Sweep(t *testing.T) {
	cache, now, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, cache.Put(ctx, "long", []byte("b"), time.Hour))

	*now = now.Add(10 * time.Minute)

	removed, err := cache.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = cache.Get(ctx, "long")
	assert.NoError(t, err)
}

// TestCacheStore_Clear tests full removal.
func TestCacheStore_Clear(t *testing.T) {
	cache, _, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, cache.Put(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, cache.Clear(ctx))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(0), stats.SizeBytes)
}

// TestCacheStore_Stats tests occupancy and hit accounting.
func TestCacheStore_Stats(t *testing.T) {
	cache, now, cleanup := setupCacheStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "live", []byte("payload"), time.Hour))
	require.NoError(t, cache.Put(ctx, "dead", []byte("payload"), time.Minute))

	*now = now.Add(10 * time.Minute)

	_, _ = cache.Get(ctx, "live")    // hit
	_, _ = cache.Get(ctx, "missing") // miss

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Expired)
	assert.Greater(t, stats.SizeBytes, int64(0))
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}
