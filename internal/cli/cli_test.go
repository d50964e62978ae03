package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/config"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/analytics"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/decoder"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

type env struct {
	dir     string
	cfgPath string
}

// newEnv writes a config pointing at the repository catalogs and a fresh
// temporary workspace.
func newEnv(t *testing.T, remoteURL string) *env {
	t.Helper()
	dataDir, err := filepath.Abs(filepath.Join("..", "..", "data"))
	require.NoError(t, err)
	dir := t.TempDir()

	cfg := fmt.Sprintf(`data:
  dir: %q
storage:
  path: %q
analytics:
  dir: %q
  remote_url: %q
content:
  pages_dir: %q
  pull_dir: %q
logging:
  level: error
`, dataDir, filepath.Join(dir, "buzz.db"), filepath.Join(dir, "analytics"), remoteURL,
		filepath.Join(dir, "pages"), filepath.Join(dir, "pulled"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &env{dir: dir, cfgPath: path}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "text"
	logger := newLoggerTo(&buf, cfg)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=v")

	buf.Reset()
	cfg.Logging.Format = "json"
	newLoggerTo(&buf, cfg).Error("boom")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
}

func TestInitStorage_Disabled(t *testing.T) {
	store, err := initStorage(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestInitNotifiers(t *testing.T) {
	cfg := &config.Config{}
	assert.Empty(t, initNotifiers(cfg))

	cfg.Alerts.Slack.Enabled = true
	assert.Empty(t, initNotifiers(cfg), "enabled without a URL")

	cfg.Alerts.Slack.WebhookURL = "https://hooks.slack.com/x"
	cfg.Alerts.Webhook.Enabled = true
	cfg.Alerts.Webhook.URL = "https://example.com/hook"
	names := []string{}
	for _, n := range initNotifiers(cfg) {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"slack", "webhook"}, names)
}

func TestInitWordPress_NotConfigured(t *testing.T) {
	_, err := initWordPress(&config.Config{}, newLoggerTo(&bytes.Buffer{}, &config.Config{}))
	assert.ErrorIs(t, err, wordpress.ErrNotConfigured)
}

func TestColorChange(t *testing.T) {
	for _, c := range []string{"+ Added provider: x", "- Removed provider: y", "~ a/b: $1/2 -> $3/4"} {
		assert.Contains(t, colorChange(c), c)
	}
}

func TestDecodeCommand(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:1")

	out, err := e.run(t, "decode", "rate limit exceeded. Please try again in 10 seconds")
	require.NoError(t, err)
	assert.Contains(t, out, "Provider:")
	assert.Contains(t, out, "Confidence:")
	assert.Contains(t, out, "Fix:")

	out, err = e.run(t, "decode", "the flux capacitor is unhappy")
	require.NoError(t, err)
	assert.Contains(t, out, "No known pattern matched")
	assert.Contains(t, out, decoder.Suggestions[0])
}

func TestPricingCalcCommand(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:1")

	out, err := e.run(t, "pricing", "calc", "--input", "1000000", "--output", "500000", "--model", "openai/gpt-4o", "--top", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "MONTHLY")
	assert.Contains(t, out, "openai/gpt-4o *")
	assert.Contains(t, out, "$7.50")

	out, err = e.run(t, "pricing", "calc", "--input", "1000", "--output", "1000", "--model", "nope/none", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `Model "nope/none" not found`)
}

func TestPricingTokensCommand(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:1")
	out, err := e.run(t, "pricing", "tokens", "--model", "openai/gpt-4o", "hello world")
	require.NoError(t, err)
	assert.Contains(t, out, "Tokens:   2")
}

func TestPricingSyncCommand_DryRun(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"gpt-4o": {"input_cost_per_token": 2.5e-06, "output_cost_per_token": 1e-05, "max_input_tokens": 128000}}`)
	}))
	defer feed.Close()

	e := newEnv(t, "http://127.0.0.1:1")
	before, err := os.ReadFile(filepath.Join("..", "..", "data", "pricing_data.json"))
	require.NoError(t, err)

	out, err := e.run(t, "pricing", "sync", "--source", feed.URL, "--apply=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Feed entries:  1")

	after, err := os.ReadFile(filepath.Join("..", "..", "data", "pricing_data.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func statsServer(t *testing.T) *httptest.Server {
	t.Helper()
	c := analytics.NewCounters(newLoggerTo(&bytes.Buffer{}, &config.Config{}))
	c.RecordDecode("mystery", false)
	c.RecordDecode("rate limit", true)
	c.RecordCalculation(100, 100)
	c.RecordModelNotFound("gpt-9")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /analytics/stats", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(analytics.StatsResponse{Success: true, Data: c.Snapshot()})
	})
	mux.HandleFunc("GET /analytics/gaps", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(analytics.GapsResponse{Success: true, Gaps: c.Gaps(analytics.DefaultGapsTop)})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyticsPullStatsAndHistory(t *testing.T) {
	srv := statsServer(t)
	e := newEnv(t, srv.URL)

	out, err := e.run(t, "analytics", "pull-stats", "--local=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Decoder:    2 total, 1 matched, 1 unmatched")

	files, err := filepath.Glob(filepath.Join(e.dir, "analytics", "stats_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	var saved analytics.StatsResponse
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, 1, saved.Data.PricingCalculator.Total)

	out, err = e.run(t, "analytics", "history", "--days", "1", "--source", "remote")
	require.NoError(t, err)
	assert.Contains(t, out, "remote")
	assert.NotContains(t, out, "No snapshots archived")

	out, err = e.run(t, "analytics", "gaps", "--local=false")
	require.NoError(t, err)
	assert.Contains(t, out, analytics.GapHash("mystery"))
	assert.Contains(t, out, "gpt-9")

	out, err = e.run(t, "analytics", "report", "--local=false")
	require.NoError(t, err)
	assert.Contains(t, out, reportFile)
	report, err := os.ReadFile(filepath.Join(e.dir, "analytics", reportFile))
	require.NoError(t, err)
	assert.Contains(t, string(report), "gpt-9")
}

const goodPage = `---
title: Good Tool
slug: ai-good
status: draft
seo_title: Good Tool for Developers
seo_description: A good tool.
widget_endpoint: /good/widget
---
# Good Tool

Some **bold** text.

## How to use

Type and go.

## FAQ

### Is this tool free?

Yes.

## Related tools

- Pricing calculator
`

func TestWPValidateAndConvert(t *testing.T) {
	e := newEnv(t, "http://127.0.0.1:1")
	pages := filepath.Join(e.dir, "pages")
	require.NoError(t, os.MkdirAll(pages, 0o755))

	good := filepath.Join(pages, "good.md")
	require.NoError(t, os.WriteFile(good, []byte(goodPage), 0o644))

	out, err := e.run(t, "wp", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.md: ok")

	bad := filepath.Join(pages, "bad.html")
	require.NoError(t, os.WriteFile(bad, []byte("<p>no frontmatter</p>"), 0o644))
	out, err = e.run(t, "wp", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "2 files, 1 with problems")

	out, err = e.run(t, "wp", "convert", "--file", good, "--output", "")
	require.NoError(t, err)
	html, err := os.ReadFile(filepath.Join(pages, "good.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<strong>bold</strong>")
	assert.Contains(t, string(html), "slug: ai-good")
	assert.Contains(t, out, "good.html")
}
