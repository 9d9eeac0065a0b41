// Package fetch provides polite, cache-backed retrieval of hymnary.org
// pages: one explicit HTTP client, a mandatory inter-request delay, and
// bounded retries with exponential backoff.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the project honestly to the remote service.
const DefaultUserAgent = "TuneScout/1.0 (personal non-commercial church ministry use)"

// Error represents a retrieval failure. Retryable distinguishes transient
// failures (network errors, 5xx) that the fetcher may retry from terminal
// ones that cross the fetcher's public boundary unchanged.
type Error struct {
	URL       string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the HTTP client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	}
}

// Client wraps a single http.Client constructed once and passed by
// reference wherever fetching happens. There is no package-level state.
type Client struct {
	httpClient *http.Client
	options    *Options
}

// NewClient creates a Client with the given options.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		options:    opts,
	}
}

// Get performs one GET attempt and returns the response body. Failures are
// always *Error; transport errors and 5xx responses are marked retryable,
// any other non-200 status is terminal.
func (c *Client) Get(ctx context.Context, urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.options.UserAgent)
	for key, value := range c.options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "HTTP request failed", Retryable: true, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to read response body", Retryable: true, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			URL:       urlStr,
			Message:   fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Retryable: resp.StatusCode >= 500,
		}
	}

	return string(body), nil
}
