package djen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/logger"
)

// publicationsPath is the listing endpoint.
const publicationsPath = "/publications"

// pageResponse is the wire shape of one listing page. Items stay raw
// so one malformed record cannot poison the whole page.
type pageResponse struct {
	Count int               `json:"count"`
	Items []json.RawMessage `json:"items"`
}

// wireItem is the wire shape of one publication record.
type wireItem struct {
	ID        int64  `json:"id"`
	Tribunal  string `json:"siglaTribunal"`
	Date      string `json:"dataDisponibilizacao"`
	Text      string `json:"texto"`
	Addressed []struct {
		Lawyer struct {
			Name   string `json:"nome"`
			Number string `json:"numero_oab"`
			UF     string `json:"uf_oab"`
		} `json:"advogado"`
	} `json:"destinatarioadvogados"`
}

// Client handles DJEN API communication with rate limiting.
type Client struct {
	baseURL string
	httpc   *http.Client
	limiter *RateLimiter
}

// NewClient creates a new DJEN API client.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		baseURL: cfg.BaseURL,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: NewRateLimiter(cfg.RequestsPerWindow, cfg.Window, cfg.RequestDelay),
	}
}

// RateLimiter returns the limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// FetchPage retrieves one listing page for the query. It waits on the
// rate limiter first and classifies failures: 429 raises the backoff
// and returns a RateLimitError, 5xx and transport failures are marked
// transient, other non-200s are permanent APIErrors.
func (c *Client) FetchPage(ctx context.Context, q domain.Query, page, pageSize int) (*pageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + publicationsPath)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	params := url.Values{}
	params.Set("dateStart", q.Dates.Start.Format(domain.DateFormat))
	params.Set("dateEnd", q.Dates.End.Format(domain.DateFormat))
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	if q.Tribunal != "" {
		params.Set("siglaTribunal", q.Tribunal)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("GET %s", u.String())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Parsed below.
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := c.limiter.SignalRateLimited()
		logger.Warn("Upstream rate limited, backing off %s", wait)
		return nil, &RateLimitError{RetryAfter: wait, Level: c.limiter.Stats().BackoffLevel}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: upstream status %d", domain.ErrTransient, resp.StatusCode)
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, URL: u.String()}
	}

	var pageResp pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pageResp); err != nil {
		return nil, fmt.Errorf("%w: decode page %d: %w", domain.ErrTransient, page, err)
	}
	return &pageResp, nil
}

// Ping makes a minimal listing request to verify the upstream is
// reachable and answering.
func (c *Client) Ping(ctx context.Context, q domain.Query) error {
	_, err := c.FetchPage(ctx, q, 1, 1)
	return err
}
