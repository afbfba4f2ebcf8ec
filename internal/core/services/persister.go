package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diario-cli/internal/logger"
)

// defaultBatchSize is the persistence batch size. Committing per batch
// instead of per record keeps transaction overhead off the hot path.
const defaultBatchSize = 100

// BatchPersister buffers scored publications and writes them to the
// durable store one transaction per full batch. It is NOT safe for
// concurrent use; the pipeline calls it from a single collector
// goroutine.
type BatchPersister struct {
	store     driven.PublicationStore
	batchSize int

	buf []domain.ScoredPublication

	// Inserted counts rows actually written; Skipped counts rows the
	// store ignored because the content hash already existed.
	Inserted int
	Skipped  int

	// Commits counts transactions issued.
	Commits int
}

// NewBatchPersister creates a persister writing to store. batchSize <= 0
// means the default of 100.
func NewBatchPersister(store driven.PublicationStore, batchSize int) *BatchPersister {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BatchPersister{
		store:     store,
		batchSize: batchSize,
		buf:       make([]domain.ScoredPublication, 0, batchSize),
	}
}

// Add buffers one publication and flushes when the buffer reaches the
// batch size. An error from the underlying store is fatal: the batch
// was rolled back and the pipeline must stop.
func (p *BatchPersister) Add(ctx context.Context, sp domain.ScoredPublication) error {
	p.buf = append(p.buf, sp)
	if len(p.buf) < p.batchSize {
		return nil
	}
	return p.Flush(ctx)
}

// Flush writes the buffered publications, if any, in one transaction.
func (p *BatchPersister) Flush(ctx context.Context) error {
	if len(p.buf) == 0 {
		return nil
	}

	n := len(p.buf)
	inserted, err := p.store.SaveBatch(ctx, p.buf)
	if err != nil {
		return fmt.Errorf("%w: save batch of %d: %w", domain.ErrPersistence, n, err)
	}

	p.Commits++
	p.Inserted += inserted
	p.Skipped += n - inserted
	p.buf = p.buf[:0]

	logger.Debug("Committed batch: %d inserted, %d already stored", inserted, n-inserted)
	return nil
}

// Pending returns how many publications are buffered but not committed.
func (p *BatchPersister) Pending() int {
	return len(p.buf)
}
