package djen

import "time"

// Defaults mirror what the upstream tolerates in practice.
const (
	// DefaultBaseURL is the public DJEN API endpoint.
	DefaultBaseURL = "https://comunicaapi.pje.jus.br"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the upstream page size.
	DefaultPageSize = 100

	// DefaultMaxRetries bounds retries per page before the page is
	// skipped.
	DefaultMaxRetries = 3

	// DefaultRequestsPerWindow and DefaultWindow define the sliding
	// request window.
	DefaultRequestsPerWindow = 20
	DefaultWindow            = time.Minute

	// DefaultRequestDelay is the paced delay between requests.
	DefaultRequestDelay = 3 * time.Second

	// DefaultPageTTL is how long fetched pages stay cached when page
	// caching is enabled.
	DefaultPageTTL = 24 * time.Hour
)

// Config holds the source configuration. Zero values mean defaults.
type Config struct {
	// BaseURL is the API root.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// PageSize is the upstream page size for listings.
	PageSize int

	// MaxRetries bounds retries per page.
	MaxRetries int

	// RequestsPerWindow and Window define the sliding rate window.
	RequestsPerWindow int
	Window            time.Duration

	// RequestDelay is the paced delay between requests.
	RequestDelay time.Duration

	// CachePages enables the per-page response cache. Page content
	// for a past date is immutable, so retried and overlapping jobs
	// reuse pages instead of refetching them.
	CachePages bool

	// PageTTL is the TTL for cached pages.
	PageTTL time.Duration
}

// withDefaults fills in zero fields.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RequestsPerWindow == 0 {
		c.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.RequestDelay == 0 {
		c.RequestDelay = DefaultRequestDelay
	}
	if c.PageTTL == 0 {
		c.PageTTL = DefaultPageTTL
	}
	return c
}
