package alerts_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/alerts"
)

type slackMessage struct {
	Channel     string `json:"channel"`
	Text        string `json:"text"`
	Attachments []struct {
		Color  string `json:"color"`
		Blocks []struct {
			Type string `json:"type"`
			Text *struct {
				Text string `json:"text"`
			} `json:"text"`
			Fields []struct {
				Text string `json:"text"`
			} `json:"fields"`
			Elements []struct {
				Text string `json:"text"`
			} `json:"elements"`
		} `json:"blocks"`
	} `json:"attachments"`
}

func sendSlack(t *testing.T, channel string, alert alerts.Alert) slackMessage {
	t.Helper()
	srv, got := captureServer(t, http.StatusOK)
	n := alerts.NewSlackNotifier(srv.URL, channel)
	require.NoError(t, n.Send(t.Context(), alert))

	var msg slackMessage
	require.NoError(t, json.Unmarshal(got.body, &msg))
	require.Len(t, msg.Attachments, 1)
	return msg
}

func TestSlackNotifier_Send(t *testing.T) {
	assert.Equal(t, "slack", alerts.NewSlackNotifier("https://hooks.slack.com/test", "").Name())

	msg := sendSlack(t, "#ai-status", alerts.Alert{
		Level:          alerts.AlertOutage,
		OverallStatus:  "major_outage",
		PreviousStatus: "all_operational",
		DownProviders:  []string{"OpenAI", "Anthropic"},
		CheckedAt:      "2026-03-04T05:06:07Z",
		Message:        "2 of 3 providers down, 0 degraded",
	})

	assert.Equal(t, "#ai-status", msg.Channel)
	assert.Equal(t, "AI API status: major_outage (was all_operational)", msg.Text)

	att := msg.Attachments[0]
	assert.Equal(t, "#cc0000", att.Color)
	require.Len(t, att.Blocks, 4)
	assert.Equal(t, "header", att.Blocks[0].Type)
	assert.Equal(t, msg.Text, att.Blocks[0].Text.Text)

	fields := att.Blocks[1].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "*Down*\nOpenAI, Anthropic", fields[0].Text)
	assert.Equal(t, "*Degraded*\nnone", fields[1].Text)

	assert.True(t, strings.HasSuffix(att.Blocks[2].Text.Text, "2 of 3 providers down, 0 degraded"))
	assert.Equal(t, "context", att.Blocks[3].Type)
	assert.Contains(t, att.Blocks[3].Elements[0].Text, "2026-03-04T05:06:07Z")
}

func TestSlackNotifier_MinimalAlert(t *testing.T) {
	msg := sendSlack(t, "", alerts.Alert{Level: alerts.AlertRecovered, OverallStatus: "all_operational"})
	assert.Empty(t, msg.Channel)
	assert.Equal(t, "AI API status: all_operational", msg.Text)
	assert.Len(t, msg.Attachments[0].Blocks, 2)
}

func TestSlackNotifier_LevelColors(t *testing.T) {
	tests := []struct {
		level alerts.AlertLevel
		color string
	}{
		{alerts.AlertRecovered, "#36a64f"},
		{alerts.AlertIssues, "#ff9900"},
		{alerts.AlertOutage, "#cc0000"},
		{"", "#ff9900"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			msg := sendSlack(t, "", alerts.Alert{Level: tt.level})
			assert.Equal(t, tt.color, msg.Attachments[0].Color)
		})
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv, _ := captureServer(t, http.StatusInternalServerError)
	err := alerts.NewSlackNotifier(srv.URL, "#test").Send(t.Context(), alerts.Alert{Level: alerts.AlertIssues})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
