package readapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/domain"
	"rollup_book/internal/infra"
)

// maxBody caps a single read response.
const maxBody = 8 << 20

// Client reads the off-chain order book service.
// Safe for concurrent use; overlapping requests are expected.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *infra.RateLimiter
	userAgent  string
}

// NewClient creates a read API client from the api config section.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.TimeoutMS) * time.Millisecond,
		},
		limiter:   infra.NewRateLimiter(cfg.API.RateLimitBurst, cfg.API.RateLimitPerSec),
		userAgent: infra.UserAgent(cfg.App.Version),
	}
}

// FetchAsks returns the public ask side, or the user's asks when addr is set.
func (c *Client) FetchAsks(ctx context.Context, addr *common.Address) ([]domain.Level, error) {
	body, err := c.get(ctx, "/asks", addr)
	if err != nil {
		return nil, err
	}
	return ParseLevels(body)
}

// FetchBids returns the public bid side, or the user's bids when addr is set.
func (c *Client) FetchBids(ctx context.Context, addr *common.Address) ([]domain.Level, error) {
	body, err := c.get(ctx, "/bids", addr)
	if err != nil {
		return nil, err
	}
	return ParseLevels(body)
}

// FetchBook fetches both sides. Either failure fails the whole book.
func (c *Client) FetchBook(ctx context.Context, addr *common.Address) (domain.Book, error) {
	asks, err := c.FetchAsks(ctx, addr)
	if err != nil {
		return domain.Book{}, err
	}
	bids, err := c.FetchBids(ctx, addr)
	if err != nil {
		return domain.Book{}, err
	}
	return domain.Book{Asks: asks, Bids: bids}, nil
}

// FetchBalances returns the rollup balances of addr.
func (c *Client) FetchBalances(ctx context.Context, addr common.Address) ([]domain.Balance, error) {
	body, err := c.get(ctx, "/balance", &addr)
	if err != nil {
		return nil, err
	}
	return ParseBalances(body)
}

func (c *Client) get(ctx context.Context, path string, addr *common.Address) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if addr != nil {
		u += "?" + url.Values{"address": {addr.Hex()}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// StatusError reports a non-200 response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status code: %d", e.Path, e.Code)
	}
	return fmt.Sprintf("GET %s: unexpected status code: %d (%s)", e.Path, e.Code, e.Body)
}
