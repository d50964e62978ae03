// Package mailchimp upserts newsletter subscribers through the Mailchimp
// Marketing API v3.
package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultServerPrefix is the data center used when none is configured.
const DefaultServerPrefix = "us1"

// Outcome is the result kind of a subscription sync.
type Outcome string

const (
	Synced        Outcome = "synced"
	NotConfigured Outcome = "not_configured"
	Failed        Outcome = "failed"
)

// ErrNotConfigured is returned by Upsert when the API key or list is missing.
var ErrNotConfigured = errors.New("mailchimp not configured")

// Config holds the account settings.
type Config struct {
	APIKey       string `mapstructure:"api_key"`
	ListID       string `mapstructure:"list_id"`
	ServerPrefix string `mapstructure:"server_prefix"`
	// BaseURL overrides https://<prefix>.api.mailchimp.com/3.0.
	BaseURL string `mapstructure:"base_url"`
}

// APIError is a non-2xx answer of the Marketing API.
type APIError struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mailchimp: HTTP %d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("mailchimp: HTTP %d", e.StatusCode)
}

// Result reports what happened to one subscription.
type Result struct {
	Outcome Outcome
	Tags    []string
	Err     error
}

// Synced reports whether the subscriber reached Mailchimp.
func (r Result) Synced() bool { return r.Outcome == Synced }

// Client talks to one Mailchimp audience.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client. A nil httpClient gets a 10s timeout client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.ServerPrefix == "" {
		cfg.ServerPrefix = DefaultServerPrefix
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Configured reports whether both the API key and list id are set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.ListID != ""
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.api.mailchimp.com/3.0", c.cfg.ServerPrefix)
}

// SubscriberHash is the member id Mailchimp derives from an address: the
// MD5 of the lower-cased email.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// Tags returns the tag set of a subscription: the tool tag followed by the
// interest tags.
func Tags(tool string, interests []string) []string {
	tags := make([]string, 0, len(interests)+1)
	tags = append(tags, "tool:"+tool)
	return append(tags, interests...)
}

// Subscribe upserts the address and never fails; the outcome says whether
// the sync happened.
func (c *Client) Subscribe(ctx context.Context, email, tool string, interests []string) Result {
	tags := Tags(tool, interests)
	if !c.Configured() {
		c.logger.Warn("mailchimp not configured, subscription recorded but not synced", "tool", tool)
		return Result{Outcome: NotConfigured, Tags: tags, Err: ErrNotConfigured}
	}
	if err := c.Upsert(ctx, email, tags); err != nil {
		c.logger.Error("mailchimp sync failed", "tool", tool, "error", err)
		return Result{Outcome: Failed, Tags: tags, Err: err}
	}
	c.logger.Info("mailchimp subscriber synced", "tool", tool, "tags", tags)
	return Result{Outcome: Synced, Tags: tags}
}

type memberRequest struct {
	EmailAddress string   `json:"email_address"`
	StatusIfNew  string   `json:"status_if_new"`
	Status       string   `json:"status"`
	Tags         []string `json:"tags"`
}

type tag struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type tagsRequest struct {
	Tags []tag `json:"tags"`
}

// Upsert adds or updates the list member and marks every tag active.
func (c *Client) Upsert(ctx context.Context, email string, tags []string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	memberURL := fmt.Sprintf("%s/lists/%s/members/%s", c.baseURL(), c.cfg.ListID, SubscriberHash(email))

	member := memberRequest{
		EmailAddress: email,
		StatusIfNew:  "subscribed",
		Status:       "subscribed",
		Tags:         tags,
	}
	if err := c.do(ctx, http.MethodPut, memberURL, member); err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}

	active := tagsRequest{Tags: make([]tag, 0, len(tags))}
	for _, t := range tags {
		active.Tags = append(active.Tags, tag{Name: t, Status: "active"})
	}
	if err := c.do(ctx, http.MethodPost, memberURL+"/tags", active); err != nil {
		return fmt.Errorf("update member tags: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("anystring", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	apiErr := &APIError{}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(apiErr)
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
