package alerts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

var levelColors = map[AlertLevel]string{
	AlertRecovered: "#36a64f",
	AlertIssues:    "#ff9900",
	AlertOutage:    "#cc0000",
}

var levelEmoji = map[AlertLevel]string{
	AlertRecovered: ":white_check_mark:",
	AlertIssues:    ":warning:",
	AlertOutage:    ":rotating_light:",
}

// SlackNotifier posts alerts to a Slack incoming webhook as a colored
// attachment of Block Kit blocks.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack notifier. An empty channel posts to the
// webhook's default channel.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, channel: channel, client: newHTTPClient()}
}

func (s *SlackNotifier) Name() string { return "slack" }

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Blocks []slackBlock `json:"blocks"`
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

func mrkdwn(format string, args ...any) slackText {
	return slackText{Type: "mrkdwn", Text: fmt.Sprintf(format, args...)}
}

func (s *SlackNotifier) message(alert Alert) slackMessage {
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: alert.Headline()}},
		{Type: "section", Fields: []slackText{
			mrkdwn("*Down*\n%s", listOrNone(alert.DownProviders)),
			mrkdwn("*Degraded*\n%s", listOrNone(alert.DegradedProviders)),
		}},
	}
	if alert.Message != "" {
		blocks = append(blocks, slackBlock{Type: "section", Text: ptr(mrkdwn("%s %s", levelEmoji[alert.Level], alert.Message))})
	}
	if alert.CheckedAt != "" {
		blocks = append(blocks, slackBlock{Type: "context", Elements: []slackText{mrkdwn("Checked at %s by AI-Buzz Status Monitor", alert.CheckedAt)}})
	}

	color, ok := levelColors[alert.Level]
	if !ok {
		color = levelColors[AlertIssues]
	}
	return slackMessage{
		Channel:     s.channel,
		Text:        alert.Headline(),
		Attachments: []slackAttachment{{Color: color, Blocks: blocks}},
	}
}

func (s *SlackNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := encode("slack", s.message(alert))
	if err != nil {
		return err
	}
	return post(ctx, s.client, "slack", s.webhookURL, body, nil)
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func ptr[T any](v T) *T { return &v }
