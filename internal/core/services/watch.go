package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diario-cli/internal/logger"
)

// Ensure WatchOrchestrator implements the interface.
var _ driving.WatchOrchestrator = (*WatchOrchestrator)(nil)

// Worker pool bounds for the scoring stage. Scoring is CPU-bound
// regex work; more than a few workers just adds scheduling churn.
const (
	minWorkers = 1
	maxWorkers = 4

	// defaultSummaryTTL is how long a completed job's summary stays
	// cached. Gazette data for a past date range is immutable, but a
	// bounded TTL keeps the cache from growing without limit.
	defaultSummaryTTL = 24 * time.Hour
)

// WatchOrchestrator runs watch jobs: it streams publications from the
// source, scores them against the target in a worker pool, then
// deduplicates and persists relevant ones serially.
type WatchOrchestrator struct {
	source driven.PublicationSource
	cache  driven.CacheStore
	store  driven.PublicationStore
	scorer *RelevanceScorer

	summaryTTL time.Duration

	// Status tracking
	mu     sync.RWMutex
	active *driving.WatchStatus
}

// NewWatchOrchestrator creates a new watch orchestrator. The cache is
// optional; when nil every job fetches fresh data.
func NewWatchOrchestrator(
	source driven.PublicationSource,
	cache driven.CacheStore,
	store driven.PublicationStore,
	scorer *RelevanceScorer,
) *WatchOrchestrator {
	return &WatchOrchestrator{
		source:     source,
		cache:      cache,
		store:      store,
		scorer:     scorer,
		summaryTTL: defaultSummaryTTL,
	}
}

// Watch runs one job for the query and blocks until it reaches a
// terminal state.
func (o *WatchOrchestrator) Watch(ctx context.Context, q domain.Query, opts driving.WatchOptions) (domain.Summary, error) {
	if !q.Target.Valid() {
		return domain.Summary{}, fmt.Errorf("%w: registration %q", domain.ErrInvalidInput, q.Target.String())
	}
	if opts.Threshold == 0 {
		opts.Threshold = o.scorer.Threshold()
	}
	workers := opts.Workers
	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	// A repeated query over an immutable date range is answered from
	// the cache without touching the upstream.
	if !opts.NoCache {
		if summary, ok := o.cachedSummary(ctx, q); ok {
			logger.Info("Cache hit for %s, skipping fetch", q.Dates.String())
			return summary, nil
		}
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		Query:     q,
		State:     domain.JobInit,
		StartedAt: time.Now(),
	}

	o.setStatus(&driving.WatchStatus{JobID: job.ID, State: job.State})
	defer o.clearStatus()

	logger.Info("Starting watch job %s for %s (%s)", job.ID, q.Target.String(), q.Dates.String())

	summary, err := o.run(ctx, job, opts, workers)
	if err != nil {
		return summary, err
	}

	if !opts.NoCache {
		o.storeSummary(ctx, q, summary)
	}
	return summary, nil
}

// Status returns a snapshot of the running job, or nil when idle.
func (o *WatchOrchestrator) Status() *driving.WatchStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.active == nil {
		return nil
	}
	// Return a copy to avoid race conditions
	snapshot := *o.active
	return &snapshot
}

// run executes the pipeline for one job.
//
//nolint:gocognit,gocyclo // Orchestration function coordinating multiple async stages
func (o *WatchOrchestrator) run(
	ctx context.Context,
	job *domain.Job,
	opts driving.WatchOptions,
	workers int,
) (domain.Summary, error) {
	// Persistence must survive cancellation so buffered records are
	// not lost; flushes run on the detached context.
	pctx := context.WithoutCancel(ctx)

	// An early return (persistence failure) must release the source
	// and the scoring workers, which would otherwise block forever
	// sending into channels nobody drains any more.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.setState(job, domain.JobFetching)
	pubsCh, errsCh := o.source.Fetch(ctx, job.Query, opts.MaxPages)

	target := job.Query.Target.Normalise()

	// Scoring fans out to a bounded worker pool. Order is irrelevant:
	// scoring is pure and the collector below is order-independent.
	scoredCh := make(chan domain.ScoredPublication, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pub := range pubsCh {
				sp := domain.ScoredPublication{
					Publication: pub,
					Target:      target,
					Score:       o.scorer.Score(pub, target),
				}
				select {
				case scoredCh <- sp:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(scoredCh)
	}()

	// The collector is the single consumer: dedup and persistence
	// stay serial so they need no locking.
	dedup := NewDeduplicator()
	persister := NewBatchPersister(o.store, opts.BatchSize)

	var scores []float64
	tribunals := map[string]struct{}{}
	var fetchDone *driven.FetchComplete
	cancelled := false
	done := ctx.Done()

	for scoredCh != nil || errsCh != nil {
		select {
		case <-done:
			// The source stops on cancellation and closes its
			// channels; keep draining so in-flight records reach the
			// buffer and are flushed below.
			cancelled = true
			done = nil

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if fc, isComplete := driven.IsFetchComplete(err); isComplete {
				fetchDone = fc
				continue
			}
			// Page and record level failures are non-fatal; the
			// completion sentinel carries the accounting.
			logger.Debug("Fetch error: %v", err)

		case sp, ok := <-scoredCh:
			if !ok {
				scoredCh = nil
				continue
			}
			if job.State == domain.JobFetching {
				o.setState(job, domain.JobScoring)
			}
			job.Observed++

			switch {
			case !sp.Score.Relevant(opts.Threshold):
				job.Filtered++
			case dedup.Seen(sp.Publication.ContentHash):
				job.Duplicates++
			default:
				if err := persister.Add(pctx, sp); err != nil {
					o.setState(job, domain.JobFailed)
					return job.Summarise(time.Since(job.StartedAt)), err
				}
				scores = append(scores, sp.Score.Final)
				tribunals[sp.Publication.Tribunal] = struct{}{}
			}
			o.publishStatus(job)
		}
	}

	// The source may close its channels before the done case is ever
	// selected; the context is the authority on cancellation.
	if ctx.Err() != nil {
		cancelled = true
	}

	if fetchDone != nil {
		job.PagesFetched = fetchDone.Pages
		job.TotalExpected = fetchDone.TotalCount
		job.FailedPages = fetchDone.FailedPages
		job.Errors += fetchDone.Malformed
		job.Observed += fetchDone.Malformed
	}

	o.setState(job, domain.JobFlushing)
	if err := persister.Flush(pctx); err != nil {
		o.setState(job, domain.JobFailed)
		return job.Summarise(time.Since(job.StartedAt)), err
	}

	// Rows the store skipped were persisted by an earlier job for the
	// same target.
	job.Persisted = persister.Inserted
	job.Duplicates += persister.Skipped

	if cancelled {
		o.setState(job, domain.JobFailed)
		summary := job.Summarise(time.Since(job.StartedAt))
		summary.BatchCommits = persister.Commits
		logger.Info("Job %s cancelled: %d persisted before stop", job.ID, job.Persisted)
		return summary, fmt.Errorf("%w: %w", domain.ErrJobCancelled, ctx.Err())
	}

	o.setState(job, domain.JobDone)
	summary := job.Summarise(time.Since(job.StartedAt))
	summary.BatchCommits = persister.Commits
	summary.ScoreBands = scoreBands(scores)
	summary.Tribunals = sortedKeys(tribunals)

	logger.Info("Job %s done: %d observed, %d persisted, %d duplicates, %d filtered, %d errors",
		job.ID, job.Observed, job.Persisted, job.Duplicates, job.Filtered, job.Errors)
	return summary, nil
}

// cachedSummary tries to answer the query from the cache. A corrupted
// entry is treated as a miss; the cache layer has already invalidated it.
func (o *WatchOrchestrator) cachedSummary(ctx context.Context, q domain.Query) (domain.Summary, bool) {
	if o.cache == nil {
		return domain.Summary{}, false
	}
	raw, err := o.cache.Get(ctx, q.CacheKey())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Query cache read failed: %v", err)
		}
		return domain.Summary{}, false
	}
	var summary domain.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		logger.Debug("Query cache entry undecodable, ignoring: %v", err)
		return domain.Summary{}, false
	}
	summary.CacheHit = true
	return summary, true
}

// storeSummary caches a completed job's summary. Failures are logged
// and ignored; caching is best effort.
func (o *WatchOrchestrator) storeSummary(ctx context.Context, q domain.Query, summary domain.Summary) {
	if o.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		logger.Debug("Marshal summary for cache: %v", err)
		return
	}
	if err := o.cache.Put(ctx, q.CacheKey(), raw, o.summaryTTL); err != nil {
		logger.Debug("Query cache write failed: %v", err)
	}
}

// setState advances the job state and republishes the status.
func (o *WatchOrchestrator) setState(job *domain.Job, s domain.JobState) {
	job.State = s
	o.publishStatus(job)
	logger.Debug("Job %s state: %s", job.ID, s)
}

// publishStatus copies the job's state and counters into the published
// status under the orchestrator lock. The job itself is owned by the
// collector goroutine; Status() only ever sees this snapshot.
func (o *WatchOrchestrator) publishStatus(job *domain.Job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil || o.active.JobID != job.ID {
		return
	}
	o.active.State = job.State
	o.active.PagesFetched = job.PagesFetched
	o.active.Observed = job.Observed
	o.active.Persisted = job.Persisted
	o.active.Duplicates = job.Duplicates
	o.active.Filtered = job.Filtered
	o.active.Errors = job.Errors
}

// setStatus publishes the status for the running job.
func (o *WatchOrchestrator) setStatus(status *driving.WatchStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = status
}

// clearStatus removes the published status.
func (o *WatchOrchestrator) clearStatus() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = nil
}
