// Package djen implements a publication source for the DJEN electronic
// gazette API (Diário de Justiça Eletrônico Nacional).
//
// The upstream exposes a paginated listing of court publications per
// date range. This package handles the whole retrieval concern so that
// consumers see a flat stream of parsed publications:
//
//   - Client: HTTP communication, wire decoding, error classification
//   - RateLimiter: sliding-window limiting with exponential backoff
//   - Source: pagination, per-page retries, caching, record parsing
//
// # Rate limiting
//
// The upstream publishes no formal quota but throttles aggressively.
// The limiter enforces a sliding request window (default 20 per
// minute) plus paced delays between requests, and backs off
// exponentially when the API answers 429. Page fetches that keep
// failing are skipped and reported, never fatal.
//
// # Parsing
//
// Publication text arrives as HTML; it is stripped to plain text and a
// canonical form (accent-folded, lower-cased, whitespace-collapsed) is
// hashed for the publication identity. Records that cannot be parsed
// are counted and skipped.
package djen
