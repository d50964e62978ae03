package analytics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/analytics"
)

func TestRemote(t *testing.T) {
	c, _ := newCounters(t)
	c.RecordDecode("weird failure", false)
	c.RecordModelNotFound("acme/rocket")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analytics/stats":
			_ = json.NewEncoder(w).Encode(analytics.StatsResponse{Success: true, Data: c.Snapshot()})
		case "/analytics/gaps":
			_ = json.NewEncoder(w).Encode(analytics.GapsResponse{Success: true, Gaps: c.Gaps(analytics.DefaultGapsTop)})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	remote := analytics.NewRemote(srv.URL+"/", srv.Client())
	assert.Equal(t, srv.URL, remote.BaseURL())

	stats, err := remote.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Data.ErrorDecoder.Unmatched)

	gaps, err := remote.Gaps(t.Context())
	require.NoError(t, err)
	require.Len(t, gaps.PricingModelsToAdd, 1)
	assert.Equal(t, "acme/rocket", gaps.PricingModelsToAdd[0].SearchTerm)
}

func TestRemote_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := analytics.NewRemote(srv.URL, srv.Client()).Stats(t.Context())
	assert.ErrorContains(t, err, "HTTP 502")
}

func TestRenderReport(t *testing.T) {
	c, now := newCounters(t)
	c.RecordDecode("weird failure", false)
	c.RecordDecode("rate limit", true)
	c.RecordCalculation(100, 100)
	c.RecordModelNotFound("acme/rocket")
	c.RecordStatusCheck("openai")
	c.RecordStatusCheck("openai")
	c.RecordStatusCheck("anthropic")
	snap := c.Snapshot()
	gaps := c.Gaps(analytics.DefaultGapsTop)

	out := analytics.RenderReport(&snap, &gaps, "https://api.example.com", *now)
	assert.Contains(t, out, "Generated: 2026-05-01 09:00:00")
	assert.Contains(t, out, "| Error Decoder | 2 | 1 unmatched |")
	assert.Contains(t, out, "| Pricing Calculator | 1 | 1 models not found |")
	assert.Contains(t, out, "- **under_1k**: 1 calculations")
	assert.Contains(t, out, "- **1x**: `weird failure`")
	assert.Contains(t, out, "- **1x**: acme/rocket")
	assert.Less(t, strings.Index(out, "**openai**: 2"), strings.Index(out, "**anthropic**: 1"))
}

func TestRenderReport_NoData(t *testing.T) {
	out := analytics.RenderReport(nil, nil, analytics.LocalURL, time.Now())
	assert.Contains(t, out, "| Error Decoder | N/A | 0 unmatched |")
	assert.Equal(t, 2, strings.Count(out, "No gaps detected yet."))
	assert.Contains(t, out, "No data yet.")
}
