package driven

import (
	"context"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

// PublicationStore durably persists scored publications.
// Backed by SQLite.
type PublicationStore interface {
	// SaveBatch stores a batch of scored publications in a single
	// transaction. Identity is (content hash, target): a publication
	// already stored for the same target is skipped, but the same
	// record watched for a different target inserts a new row. Returns
	// the number actually inserted. A returned error means the whole
	// batch was rolled back.
	SaveBatch(ctx context.Context, pubs []domain.ScoredPublication) (int, error)

	// Has reports whether a publication with the given content hash
	// is already stored under any target.
	Has(ctx context.Context, contentHash string) (bool, error)

	// List returns stored publications for a target, newest first,
	// optionally bounded by dates and tribunal (zero values mean
	// unbounded).
	List(ctx context.Context, target domain.Registration, filter domain.Query) ([]domain.ScoredPublication, error)

	// Count returns how many publications are stored for a target.
	Count(ctx context.Context, target domain.Registration) (int, error)
}
