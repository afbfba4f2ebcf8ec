package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diario-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

// withStores wires memory-backed stores so no wiring happens.
func withStores(t *testing.T) (*memory.PublicationStore, *memory.CacheStore) {
	t.Helper()

	pubs := memory.NewPublicationStore()
	cache := memory.NewCacheStore()

	origOrch, origPubs, origCache := watchOrchestrator, pubStore, cacheStore
	watchOrchestrator = &cliMockOrchestrator{}
	pubStore = pubs
	cacheStore = cache
	t.Cleanup(func() {
		watchOrchestrator, pubStore, cacheStore = origOrch, origPubs, origCache
	})
	return pubs, cache
}

// TestListCmd_Empty tests output with nothing stored.
func TestListCmd_Empty(t *testing.T) {
	withStores(t)

	out, err := execute(t, "list", "123456/SP")
	require.NoError(t, err)
	assert.Contains(t, out, "No publications stored.")
}

// TestListCmd_PrintsStored tests the one-line listing.
func TestListCmd_PrintsStored(t *testing.T) {
	pubs, _ := withStores(t)

	target := domain.Registration{Number: "123456", UF: "SP"}
	_, err := pubs.SaveBatch(context.Background(), []domain.ScoredPublication{
		{
			Publication: domain.Publication{
				SourceID:    "1",
				Tribunal:    "TJSP",
				Date:        time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
				RawText:     "Intimação do advogado, OAB 123.456/SP",
				ContentHash: "aaaabbbbccccdddd",
			},
			Target: target,
			Score:  domain.ScoreResult{Final: 0.97},
		},
	})
	require.NoError(t, err)

	out, err := execute(t, "list", "123456/SP")
	require.NoError(t, err)
	assert.Contains(t, out, "TJSP")
	assert.Contains(t, out, "0.97")
	assert.Contains(t, out, "1 publication(s) for 123456/SP")
}

// TestCacheCmd_StatsAndClear tests the cache maintenance commands.
func TestCacheCmd_StatsAndClear(t *testing.T) {
	_, cache := withStores(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "page:1", []byte("x"), time.Hour))

	out, err := execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1 live")

	out, err = execute(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared.")

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}
