// Package wordpress is a client for the WordPress REST API v2 covering the
// pages, posts, categories and AIOSEO metadata the content tooling manages.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSiteURL is the site managed when none is configured.
const DefaultSiteURL = "https://www.ai-buzz.com"

// Retry policy for transient failures.
const (
	MaxRetries = 3
	RetryDelay = 5 * time.Second
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var (
	// ErrNotFound is returned when a slug lookup yields nothing.
	ErrNotFound = errors.New("wordpress: not found")
	// ErrMissingContent is returned when creating a page or post without content.
	ErrMissingContent = errors.New("wordpress: content is required")
	// ErrNotConfigured is returned when credentials are missing.
	ErrNotConfigured = errors.New("wordpress: credentials not configured")
)

// Config holds the site address and application password.
type Config struct {
	SiteURL     string `mapstructure:"site_url"`
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
	// RequestsPerSecond paces requests; zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// APIError is a non-2xx response that was not retried or ran out of retries.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wordpress: %s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("wordpress: %s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
}

// Client talks to one WordPress site.
type Client struct {
	siteURL  string
	apiURL   string
	username string
	password string
	http     *http.Client
	logger   *slog.Logger
	limiter  *rate.Limiter
	backoff  func(attempt int) time.Duration
}

// NewClient creates a client. A nil httpClient gets a 30s timeout client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	site := strings.TrimRight(cfg.SiteURL, "/")
	if site == "" {
		site = DefaultSiteURL
	}
	c := &Client{
		siteURL:  site,
		apiURL:   site + "/wp-json/wp/v2",
		username: cfg.Username,
		password: cfg.AppPassword,
		http:     httpClient,
		logger:   logger,
		backoff:  ExponentialBackoff,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if !c.Configured() {
		logger.Warn("wordpress credentials not configured")
	}
	return c
}

// ExponentialBackoff waits RetryDelay·2^attempt.
func ExponentialBackoff(attempt int) time.Duration {
	return RetryDelay << attempt
}

// WithBackoff replaces the delay between retries.
func (c *Client) WithBackoff(f func(attempt int) time.Duration) *Client {
	c.backoff = f
	return c
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.username != "" && c.password != ""
}

// SiteURL returns the site base address.
func (c *Client) SiteURL() string { return c.siteURL }

type request struct {
	method string
	url    string
	query  url.Values
	body   any
}

// do sends r, retrying transient failures, and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, r request, out any) (http.Header, error) {
	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}
	target := r.url
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, r.method, target, payload)
		if err != nil {
			if ctx.Err() != nil || attempt >= MaxRetries {
				return nil, fmt.Errorf("wordpress: %s %s: %w", r.method, r.url, err)
			}
			c.logger.Warn("wordpress request failed, retrying", "url", r.url, "error", err, "attempt", attempt+1)
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if retryableStatus[resp.StatusCode] && attempt < MaxRetries {
			drain(resp)
			c.logger.Warn("wordpress returned transient status, retrying",
				"url", r.url, "status", resp.StatusCode, "attempt", attempt+1)
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}
		return c.decode(resp, r, out)
	}
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.http.Do(req)
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(c.backoff(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) decode(resp *http.Response, r request, out any) (http.Header, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(apiErr)
		apiErr.StatusCode = resp.StatusCode
		apiErr.Method = r.method
		apiErr.URL = r.url
		return resp.Header, apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decode %s response: %w", r.url, err)
	}
	return resp.Header, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// listAll follows X-WP-TotalPages until the last page or an empty page.
func listAll[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("per_page", "100")
		q.Set("page", strconv.Itoa(page))

		var batch []T
		header, err := c.do(ctx, request{method: http.MethodGet, url: endpoint, query: q}, &batch)
		if err != nil {
			return all, err
		}
		if len(batch) == 0 {
			return all, nil
		}
		all = append(all, batch...)

		total, err := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if err != nil || page >= total {
			return all, nil
		}
	}
}
