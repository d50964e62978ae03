package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LocalURL is the development server address.
const LocalURL = "http://localhost:8000"

// StatsResponse is the body of GET /analytics/stats.
type StatsResponse struct {
	Success bool     `json:"success"`
	Data    Snapshot `json:"data"`
	Note    string   `json:"note"`
}

// GapsResponse is the body of GET /analytics/gaps.
type GapsResponse struct {
	Success bool `json:"success"`
	Gaps
}

// Remote reads the usage counters of a running API.
type Remote struct {
	baseURL string
	http    *http.Client
}

// NewRemote creates a client for the API at baseURL. A nil client gets a
// 30s timeout.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

// BaseURL returns the API address.
func (r *Remote) BaseURL() string { return r.baseURL }

// Stats fetches the current counters.
func (r *Remote) Stats(ctx context.Context) (*StatsResponse, error) {
	var out StatsResponse
	if err := r.get(ctx, "/analytics/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Gaps fetches the ranked gap lists.
func (r *Remote) Gaps(ctx context.Context) (*GapsResponse, error) {
	var out GapsResponse
	if err := r.get(ctx, "/analytics/gaps", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Remote) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
