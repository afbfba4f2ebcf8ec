package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

var testTarget = domain.Registration{Number: "123456", UF: "SP"}

func scored(hash, tribunal, date string) domain.ScoredPublication {
	d, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		panic(err)
	}
	return domain.ScoredPublication{
		Publication: domain.Publication{
			SourceID:    "src-" + hash,
			Tribunal:    tribunal,
			Date:        d,
			RawText:     "Intimação do advogado, OAB 123.456/SP",
			Recipients: []domain.Recipient{
				{Name: "Joao Silva", Registration: testTarget},
			},
			ContentHash: hash,
		},
		Target: testTarget,
		Score: domain.ScoreResult{
			Structured: 0.95,
			Text:       1.0,
			Final:      0.97,
			Reasons: []domain.MatchReason{
				{Kind: domain.MatchText, Pattern: "full_formatted", Confidence: 0.95, Occurrences: 1, Position: 25},
			},
		},
	}
}

// TestPublicationStore_SaveBatch tests transactional batch insertion.
func TestPublicationStore_SaveBatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	pubs := store.PublicationStore()
	ctx := context.Background()

	batch := []domain.ScoredPublication{
		scored("hash-1", "TJSP", "2025-08-15"),
		scored("hash-2", "TJSP", "2025-08-15"),
		scored("hash-3", "STJ", "2025-08-14"),
	}
	inserted, err := pubs.SaveBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	count, err := pubs.Count(ctx, testTarget)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// TestPublicationStore_SaveBatchIdempotent tests that resaving the
// same content inserts nothing.
func TestPublicationStore_SaveBatchIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	pubs := store.PublicationStore()
	ctx := context.Background()

	batch := []domain.ScoredPublication{
		scored("hash-1", "TJSP", "2025-08-15"),
		scored("hash-2", "TJSP", "2025-08-15"),
	}
	inserted, err := pubs.SaveBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Same batch again: everything skipped.
	inserted, err = pubs.SaveBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	// Overlapping batch: only the new hash lands.
	inserted, err = pubs.SaveBatch(ctx, []domain.ScoredPublication{
		scored("hash-2", "TJSP", "2025-08-15"),
		scored("hash-4", "TJRJ", "2025-08-16"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

// TestPublicationStore_SharedContentAcrossTargets tests that one
// gazette record addressed to two watched lawyers persists once per
// target.
func TestPublicationStore_SharedContentAcrossTargets(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	pubs := store.PublicationStore()
	ctx := context.Background()

	otherTarget := domain.Registration{Number: "654321", UF: "RJ"}
	first := scored("hash-shared", "TJSP", "2025-08-15")
	second := scored("hash-shared", "TJSP", "2025-08-15")
	second.Target = otherTarget

	inserted, err := pubs.SaveBatch(ctx, []domain.ScoredPublication{first})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same content hash, different target: a new row, not a skip.
	inserted, err = pubs.SaveBatch(ctx, []domain.ScoredPublication{second})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	for _, target := range []domain.Registration{testTarget, otherTarget} {
		count, err := pubs.Count(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		rows, err := pubs.List(ctx, target, domain.Query{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "hash-shared", rows[0].Publication.ContentHash)
	}
}

// TestPublicationStore_SaveBatchEmpty tests the empty-batch no-op.
func TestPublicationStore_SaveBatchEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	inserted, err := store.PublicationStore().SaveBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

// TestPublicationStore_Has tests content-hash lookup.
func TestPublicationStore_Has(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	pubs := store.PublicationStore()
	ctx := context.Background()

	_, err := pubs.SaveBatch(ctx, []domain.ScoredPublication{scored("hash-1", "TJSP", "2025-08-15")})
	require.NoError(t, err)

	has, err := pubs.Has(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = pubs.Has(ctx, "hash-nope")
	require.NoError(t, err)
	assert.False(t, has)
}

// TestPublicationStore_List tests filtering and ordering.
func TestPublicationStore_List(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	pubs := store.PublicationStore()
	ctx := context.Background()

	_, err := pubs.SaveBatch(ctx, []domain.ScoredPublication{
		scored("hash-1", "TJSP", "2025-08-13"),
		scored("hash-2", "STJ", "2025-08-14"),
		scored("hash-3", "TJSP", "2025-08-15"),
	})
	require.NoError(t, err)

	// Unbounded: everything, newest first.
	all, err := pubs.List(ctx, testTarget, domain.Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hash-3", all[0].Publication.ContentHash)
	assert.Equal(t, "hash-1", all[2].Publication.ContentHash)

	// Round trip of the nested values.
	assert.Equal(t, testTarget, all[0].Target)
	assert.Equal(t, 0.97, all[0].Score.Final)
	require.Len(t, all[0].Score.Reasons, 1)
	assert.Equal(t, "full_formatted", all[0].Score.Reasons[0].Pattern)
	require.Len(t, all[0].Publication.Recipients, 1)
	assert.Equal(t, "Joao Silva", all[0].Publication.Recipients[0].Name)

	// Tribunal filter.
	tjsp, err := pubs.List(ctx, testTarget, domain.Query{Tribunal: "TJSP"})
	require.NoError(t, err)
	assert.Len(t, tjsp, 2)

	// Date bounds.
	mid, err := pubs.List(ctx, testTarget, domain.Query{
		Dates: domain.DateRange{
			Start: time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	require.Len(t, mid, 1)
	assert.Equal(t, "hash-2", mid[0].Publication.ContentHash)

	// Unknown target: empty.
	none, err := pubs.List(ctx, domain.Registration{Number: "999999", UF: "RJ"}, domain.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestPublicationStore_TargetNormalised tests that formatting variants
// of the target resolve to the same stored rows.
func TestPublicationStore_TargetNormalised(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	pubs := store.PublicationStore()
	ctx := context.Background()

	_, err := pubs.SaveBatch(ctx, []domain.ScoredPublication{scored("hash-1", "TJSP", "2025-08-15")})
	require.NoError(t, err)

	count, err := pubs.Count(ctx, domain.Registration{Number: "123.456", UF: "sp"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
