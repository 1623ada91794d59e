package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Error is returned when every access strategy has been exhausted. It keeps
// the last underlying cause so callers can report why the final attempt
// failed.
type Error struct {
	URL      string
	Attempts int
	last     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("all %d fetch strategies failed for %s: %v", e.Attempts, e.URL, e.last)
}

func (e *Error) Unwrap() error {
	return e.last
}

// Strategy rewrites a target URL into an alternate access path. Strategies
// are tried in order; the first success wins.
type Strategy struct {
	Name    string
	Rewrite func(target string) string
}

func DirectStrategy() Strategy {
	return Strategy{
		Name:    "direct",
		Rewrite: func(target string) string { return target },
	}
}

// ProxyStrategy routes the target through a relay that expects the
// URL-encoded target appended to its prefix (allorigins/corsproxy style).
func ProxyStrategy(prefix string) Strategy {
	return Strategy{
		Name: prefix,
		Rewrite: func(target string) string {
			return prefix + url.QueryEscape(target)
		},
	}
}

type Client struct {
	httpClient *http.Client
	strategies []Strategy
	userAgent  string
	timeout    time.Duration
}

// NewClient builds a transport client trying direct access first, then each
// proxy prefix in the order given. Any single relay may be rate-limited or
// down; the chain trades latency for availability.
func NewClient(proxyURLs []string, timeout time.Duration, userAgent string) *Client {
	strategies := make([]Strategy, 0, len(proxyURLs)+1)
	strategies = append(strategies, DirectStrategy())
	for _, prefix := range proxyURLs {
		strategies = append(strategies, ProxyStrategy(prefix))
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		strategies: strategies,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// NewClientWithStrategies is used by tests to control the chain directly.
func NewClientWithStrategies(strategies []Strategy, timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{},
		strategies: strategies,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Run fetches the target URL, advancing through the strategy chain on
// failure. Each attempt is bounded by the client timeout so one unreachable
// relay cannot stall the chain.
func (c *Client) Run(ctx context.Context, target string) ([]byte, error) {
	var lastErr error

	for _, strategy := range c.strategies {
		data, err := c.attempt(ctx, strategy.Rewrite(target))
		if err == nil {
			return data, nil
		}

		lastErr = err
		slog.Debug("Fetch attempt failed, advancing to next strategy",
			"url", target,
			"strategy", strategy.Name,
			"error", err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &Error{URL: target, Attempts: len(c.strategies), last: lastErr}
}

func (c *Client) attempt(ctx context.Context, requestURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, application/json, text/xml, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	return data, nil
}
