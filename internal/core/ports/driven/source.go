package driven

import (
	"context"
	"errors"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

// PublicationSource streams publications from the upstream gazette API.
// Implementations handle pagination, rate limiting and per-page retries
// internally; the consumer sees a flat stream.
type PublicationSource interface {
	// Name returns the source identifier (e.g. "djen").
	Name() string

	// Validate checks the source is reachable and properly configured.
	// Makes a lightweight upstream call.
	Validate(ctx context.Context) error

	// Fetch streams all publications matching the query, up to maxPages
	// pages (0 means no limit). Returns channels for publications and
	// errors. Individual malformed records and pages that exhaust their
	// retries are reported on the error channel but do not stop the
	// stream. On successful completion the source sends FetchComplete
	// on the error channel and closes both channels.
	Fetch(ctx context.Context, q domain.Query, maxPages int) (<-chan domain.Publication, <-chan error)

	// Close releases resources.
	Close() error
}

// FetchComplete is sent on the error channel when a fetch finishes.
// Carries the page-level accounting the consumer cannot derive from
// the publication stream alone.
type FetchComplete struct {
	// Pages is how many pages were fetched successfully.
	Pages int

	// TotalCount is the upstream-reported total record count.
	TotalCount int

	// FailedPages lists page indexes skipped after exhausting retries.
	FailedPages []int

	// Malformed counts records dropped because they could not be parsed.
	Malformed int
}

// Error implements the error interface.
// This allows FetchComplete to be sent on the error channel.
func (*FetchComplete) Error() string {
	return "fetch complete"
}

// IsFetchComplete checks if an error is actually a successful completion.
// Returns the FetchComplete and true if it is, nil and false otherwise.
func IsFetchComplete(err error) (*FetchComplete, bool) {
	var fc *FetchComplete
	if errors.As(err, &fc) {
		return fc, true
	}
	return nil, false
}
