package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// CacheStore is an in-memory implementation of driven.CacheStore.
// Payloads are stored uncompressed; this store exists for tests and
// cache-less runs, not for durability.
type CacheStore struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64

	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get retrieves a cached value. Expired entries are removed lazily.
func (c *CacheStore) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, domain.ErrNotFound
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, domain.ErrNotFound
	}
	c.hits++
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Put stores a value under key with the given TTL.
func (c *CacheStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	c.entries[key] = cacheEntry{value: v, expiresAt: c.now().Add(ttl)}
	return nil
}

// Invalidate removes a single entry.
func (c *CacheStore) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// InvalidatePattern removes entries matching the SQL LIKE pattern.
// Only the trailing "%" wildcard form is supported here.
func (c *CacheStore) InvalidatePattern(_ context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "%")
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Sweep removes all expired entries.
func (c *CacheStore) Sweep(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Clear removes every entry.
func (c *CacheStore) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return nil
}

// Stats reports cache occupancy and hit accounting.
func (c *CacheStore) Stats(_ context.Context) (driven.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	stats := driven.CacheStats{Hits: c.hits, Misses: c.misses}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.Expired++
			continue
		}
		stats.Entries++
		stats.SizeBytes += int64(len(e.value))
	}
	return stats, nil
}
