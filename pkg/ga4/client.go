// Package ga4 pulls tool usage reports from the Google Analytics Data API.
package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DefaultEndpoint = "https://analyticsdata.googleapis.com/v1beta"
	Scope           = "https://www.googleapis.com/auth/analytics.readonly"
	toolDimension   = "customEvent:tool_name"
)

// ErrNotConfigured is returned when no property id is set.
var ErrNotConfigured = errors.New("GA4_PROPERTY_ID environment variable not set")

// Config selects the property and credentials.
type Config struct {
	PropertyID      string `mapstructure:"property_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

// APIError is an error answer of the Data API.
type APIError struct {
	StatusCode int
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ga4: HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// NewHTTPClient returns an OAuth2 client for the read-only analytics scope,
// from the service account key at credentialsFile or from the application
// default credentials when it is empty.
func NewHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, Scope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, Scope)
	}
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 30 * time.Second
	return client, nil
}

// Client runs reports against one GA4 property.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewClient creates a client over an authorized HTTP client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for pulled_at stamps.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Configured reports whether a property id is set.
func (c *Client) Configured() bool { return c.cfg.PropertyID != "" }

type name struct {
	Name string `json:"name"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type reportRequest struct {
	DateRanges []dateRange `json:"dateRanges"`
	Dimensions []name      `json:"dimensions"`
	Metrics    []name      `json:"metrics"`
}

type value struct {
	Value string `json:"value"`
}

type row struct {
	DimensionValues []value `json:"dimensionValues"`
	MetricValues    []value `json:"metricValues"`
}

type reportResponse struct {
	Rows []row `json:"rows"`
}

func (r row) dimension(i int) string {
	if i < len(r.DimensionValues) {
		return r.DimensionValues[i].Value
	}
	return ""
}

func (r row) metric(i int) int64 {
	if i >= len(r.MetricValues) {
		return 0
	}
	n, _ := strconv.ParseInt(r.MetricValues[i].Value, 10, 64)
	return n
}

func names(values ...string) []name {
	out := make([]name, len(values))
	for i, v := range values {
		out[i] = name{Name: v}
	}
	return out
}

func (c *Client) runReport(ctx context.Context, days int, dimensions, metrics []string) ([]row, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(reportRequest{
		DateRanges: []dateRange{{StartDate: fmt.Sprintf("%ddaysAgo", days), EndDate: "today"}},
		Dimensions: names(dimensions...),
		Metrics:    names(metrics...),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal report request: %w", err)
	}

	url := fmt.Sprintf("%s/properties/%s:runReport", strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.PropertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error APIError `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope)
		envelope.Error.StatusCode = resp.StatusCode
		return nil, &envelope.Error
	}

	var report reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return report.Rows, nil
}

// eventRows queries event counts per tool, falling back to event names only
// when the tool dimension query fails. byTool is false after a fallback.
func (c *Client) eventRows(ctx context.Context, days int) (rows []row, byTool bool, dimErr error, err error) {
	rows, dimErr = c.runReport(ctx, days, []string{"eventName", toolDimension}, []string{"eventCount"})
	if dimErr == nil {
		return rows, true, nil, nil
	}
	if errors.Is(dimErr, ErrNotConfigured) || ctx.Err() != nil {
		return nil, false, nil, dimErr
	}
	c.logger.Info("tool_name dimension not available, using eventName only", "error", dimErr)
	rows, err = c.runReport(ctx, days, []string{"eventName"}, []string{"eventCount"})
	return rows, false, dimErr, err
}
