package driving

import (
	"context"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

// WatchOrchestrator runs watch jobs: fetch, score, deduplicate and
// persist publications relevant to a target registration.
type WatchOrchestrator interface {
	// Watch runs one job for the query and blocks until it reaches a
	// terminal state. Cancelling the context stops fetching, flushes
	// already-buffered records and returns a summary in the failed
	// state wrapping domain.ErrJobCancelled.
	Watch(ctx context.Context, q domain.Query, opts WatchOptions) (domain.Summary, error)

	// Status returns a snapshot of the running job, or nil when no
	// job is active.
	Status() *WatchStatus
}

// WatchOptions tunes a single watch job. Zero values mean defaults.
type WatchOptions struct {
	// Threshold is the minimum relevance score to persist. Defaults
	// to 0.3.
	Threshold float64

	// BatchSize is the persistence batch size. Defaults to 100.
	BatchSize int

	// Workers is the scoring worker count, clamped to [1, 4].
	Workers int

	// MaxPages caps pages fetched. 0 means no cap.
	MaxPages int

	// NoCache bypasses the whole-query cache for this job.
	NoCache bool
}

// WatchStatus is a point-in-time snapshot of a running job.
type WatchStatus struct {
	JobID        string
	State        domain.JobState
	PagesFetched int
	Observed     int
	Persisted    int
	Duplicates   int
	Filtered     int
	Errors       int
}
