package djen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diario-cli/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.PublicationSource = (*Source)(nil)

// Source streams publications from the DJEN listing API. Pagination,
// per-page retries, rate limiting and the optional page cache are all
// handled here; consumers see a flat record stream.
type Source struct {
	client *Client
	cache  driven.CacheStore
	cfg    Config
}

// New creates a DJEN source. The cache is optional; page caching also
// requires cfg.CachePages.
func New(cfg Config, cache driven.CacheStore) *Source {
	cfg = cfg.withDefaults()
	return &Source{
		client: NewClient(cfg),
		cache:  cache,
		cfg:    cfg,
	}
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return "djen"
}

// Validate checks the upstream is reachable with a minimal listing
// request. A rate-limit answer still proves the API is alive.
func (s *Source) Validate(ctx context.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	q := domain.Query{Dates: domain.DateRange{Start: today, End: today}}
	if err := s.client.Ping(ctx, q); err != nil && !IsRateLimited(err) {
		return fmt.Errorf("djen unreachable: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

// RateStats exposes the limiter snapshot for status output.
func (s *Source) RateStats() RateStats {
	return s.client.RateLimiter().Stats()
}

// Fetch streams all publications matching the query.
func (s *Source) Fetch(ctx context.Context, q domain.Query, maxPages int) (<-chan domain.Publication, <-chan error) {
	pubs := make(chan domain.Publication)
	errs := make(chan error, 16)

	go s.fetchAll(ctx, q, maxPages, pubs, errs)
	return pubs, errs
}

// fetchAll drives pagination. The first page discovers the total
// count; later pages that exhaust their retries are reported and
// skipped. On cancellation the channels close without a sentinel.
func (s *Source) fetchAll(
	ctx context.Context,
	q domain.Query,
	maxPages int,
	pubs chan<- domain.Publication,
	errs chan<- error,
) {
	defer close(pubs)
	defer close(errs)

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.PageSize
	}

	fc := &driven.FetchComplete{}

	first, err := s.page(ctx, q, 1, pageSize)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fc.FailedPages = append(fc.FailedPages, 1)
		select {
		case errs <- fmt.Errorf("fetch page 1: %w", err):
		case <-ctx.Done():
			return
		}
		select {
		case errs <- fc:
		case <-ctx.Done():
		}
		return
	}

	fc.TotalCount = first.Count
	totalPages := (first.Count + pageSize - 1) / pageSize
	if maxPages > 0 && totalPages > maxPages {
		totalPages = maxPages
	}
	logger.Info("Fetching %d records over %d pages", first.Count, totalPages)

	if !s.emit(ctx, first, pubs, errs, fc) {
		return
	}
	fc.Pages++

	for page := 2; page <= totalPages; page++ {
		if ctx.Err() != nil {
			return
		}

		resp, err := s.page(ctx, q, page, pageSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Partial results beat no results: skip the page and
			// let the consumer see the gap in the accounting.
			logger.Warn("Page %d skipped after retries: %v", page, err)
			fc.FailedPages = append(fc.FailedPages, page)
			select {
			case errs <- fmt.Errorf("fetch page %d: %w", page, err):
			case <-ctx.Done():
				return
			}
			continue
		}

		if !s.emit(ctx, resp, pubs, errs, fc) {
			return
		}
		fc.Pages++
	}

	select {
	case errs <- fc:
	case <-ctx.Done():
	}
}

// page fetches one page, preferring the page cache and retrying
// transient failures with exponential backoff.
func (s *Source) page(ctx context.Context, q domain.Query, page, pageSize int) (*pageResponse, error) {
	cacheKey := q.PageCacheKey(page)

	if s.cachingPages() {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var resp pageResponse
			if jsonErr := json.Unmarshal(raw, &resp); jsonErr == nil {
				logger.Debug("Page %d served from cache", page)
				return &resp, nil
			}
			// Undecodable entry; refetch and overwrite.
			_ = s.cache.Invalidate(ctx, cacheKey)
		}
	}

	var resp *pageResponse
	op := func() error {
		r, err := s.client.FetchPage(ctx, q, page, pageSize)
		if err != nil {
			if IsRateLimited(err) || errors.Is(err, domain.ErrTransient) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.cfg.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	if s.cachingPages() {
		if raw, err := json.Marshal(resp); err == nil {
			if putErr := s.cache.Put(ctx, cacheKey, raw, s.cfg.PageTTL); putErr != nil {
				logger.Debug("Page cache write failed: %v", putErr)
			}
		}
	}
	return resp, nil
}

// emit parses and sends one page's records. Returns false when the
// context was cancelled mid-page.
func (s *Source) emit(
	ctx context.Context,
	resp *pageResponse,
	pubs chan<- domain.Publication,
	errs chan<- error,
	fc *driven.FetchComplete,
) bool {
	for _, raw := range resp.Items {
		pub, err := parseItem(raw)
		if err != nil {
			fc.Malformed++
			select {
			case <-ctx.Done():
				return false
			case errs <- err:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return false
		case pubs <- pub:
		}
	}
	return true
}

func (s *Source) cachingPages() bool {
	return s.cfg.CachePages && s.cache != nil
}

// parseItem converts one wire record into a publication. The HTML
// payload is stripped to plain text and the canonical form is hashed
// into the content identity.
func parseItem(raw json.RawMessage) (domain.Publication, error) {
	var item wireItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.Publication{}, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	if item.Tribunal == "" || item.Date == "" {
		return domain.Publication{}, fmt.Errorf("%w: record %d missing tribunal or date", domain.ErrMalformedRecord, item.ID)
	}

	date, err := parseWireDate(item.Date)
	if err != nil {
		return domain.Publication{}, fmt.Errorf("%w: record %d: %w", domain.ErrMalformedRecord, item.ID, err)
	}

	text := StripHTML(item.Text)

	recipients := make([]domain.Recipient, 0, len(item.Addressed))
	for _, a := range item.Addressed {
		recipients = append(recipients, domain.Recipient{
			Name: a.Lawyer.Name,
			Registration: domain.Registration{
				Number: a.Lawyer.Number,
				UF:     a.Lawyer.UF,
			},
		})
	}

	return domain.Publication{
		SourceID:    strconv.FormatInt(item.ID, 10),
		Tribunal:    item.Tribunal,
		Date:        date,
		RawText:     text,
		Recipients:  recipients,
		ContentHash: domain.Fingerprint(item.Tribunal, date, Canonicalise(text)),
	}, nil
}

// parseWireDate accepts the civil date form and the timestamped form
// the upstream mixes freely.
func parseWireDate(s string) (time.Time, error) {
	if t, err := time.Parse(domain.DateFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.UTC().Truncate(24 * time.Hour), nil
}
