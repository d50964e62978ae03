// Package status probes AI provider APIs and aggregates their health.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
)

// State is the health of one provider.
type State string

const (
	Operational State = "operational"
	Degraded    State = "degraded"
	Down        State = "down"
)

const (
	DefaultTimeout          = 10 * time.Second
	DefaultDegradedAfter    = 2 * time.Second
	maxErrorLength          = 100
	probeUserAgent          = "AI-Buzz-Tools/2.0"
	connectionFailedMessage = "Connection failed"
)

// ProviderStatus is the outcome of probing one provider.
type ProviderStatus struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Status        State   `json:"status"`
	LatencyMS     *int    `json:"latency_ms"`
	LastChecked   string  `json:"last_checked"`
	StatusPageURL string  `json:"status_page_url"`
	Error         *string `json:"error"`
}

// Prober sends a single request to a provider endpoint and classifies the
// response. Any answer below 500 counts as alive, since unauthenticated
// probes are expected to get 401 or 400.
type Prober struct {
	client        *http.Client
	timeout       time.Duration
	degradedAfter time.Duration
	now           func() time.Time
}

// NewProber creates a prober. A nil client uses http.DefaultClient.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	return &Prober{
		client:        client,
		timeout:       DefaultTimeout,
		degradedAfter: DefaultDegradedAfter,
		now:           time.Now,
	}
}

// WithTimeout sets the per-probe deadline.
func (p *Prober) WithTimeout(d time.Duration) *Prober {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// WithDegradedThreshold sets the latency from which a provider is degraded.
func (p *Prober) WithDegradedThreshold(d time.Duration) *Prober {
	if d > 0 {
		p.degradedAfter = d
	}
	return p
}

// WithClock replaces the clock used for latency and timestamps.
func (p *Prober) WithClock(now func() time.Time) *Prober {
	p.now = now
	return p
}

// Probe checks one provider. It never fails; transport problems are
// reported as a down status.
func (p *Prober) Probe(ctx context.Context, id string, sp catalog.StatusProvider) ProviderStatus {
	start := p.now()
	result := ProviderStatus{
		ID:            id,
		Name:          sp.Name,
		LastChecked:   timestamp(start),
		StatusPageURL: sp.StatusPage,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	code, err := p.send(ctx, sp)
	latency := int(p.now().Sub(start).Milliseconds())

	switch {
	case err != nil && isTimeout(err):
		result.Status = Down
		result.LatencyMS = &latency
		result.Error = ptr(fmt.Sprintf("Timeout after %ss", strconv.FormatFloat(p.timeout.Seconds(), 'f', -1, 64)))
	case err != nil && isConnectError(err):
		result.Status = Down
		result.Error = ptr(connectionFailedMessage)
	case err != nil:
		result.Status = Down
		result.Error = ptr(truncate(err.Error(), maxErrorLength))
	case code >= http.StatusInternalServerError:
		result.Status = Down
		result.LatencyMS = &latency
		result.Error = ptr(fmt.Sprintf("Server error: HTTP %d", code))
	case time.Duration(latency)*time.Millisecond >= p.degradedAfter:
		result.Status = Degraded
		result.LatencyMS = &latency
		result.Error = ptr(fmt.Sprintf("High latency: %dms", latency))
	default:
		result.Status = Operational
		result.LatencyMS = &latency
	}
	return result
}

func (p *Prober) send(ctx context.Context, sp catalog.StatusProvider) (int, error) {
	var body io.Reader
	if sp.Method == http.MethodPost {
		body = strings.NewReader("{}")
	}
	method := sp.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, sp.Endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("create probe request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func ptr[T any](v T) *T { return &v }
