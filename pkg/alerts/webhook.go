package alerts

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// Webhook headers and event name.
const (
	EventStatusChanged = "provider_status_changed"
	HeaderEvent        = "X-Buzz-Event"
	HeaderTimestamp    = "X-Buzz-Timestamp"
	HeaderSignature    = "X-Buzz-Signature"
)

// WebhookNotifier posts alerts as JSON to a generic endpoint.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

// NewWebhookNotifier creates a webhook notifier. With a secret, every
// request carries an HMAC-SHA256 signature of "<timestamp>.<body>".
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{url: url, secret: secret, client: newHTTPClient(), now: time.Now}
}

// WithClock replaces the clock used for the timestamp header.
func (w *WebhookNotifier) WithClock(now func() time.Time) *WebhookNotifier {
	w.now = now
	return w
}

func (w *WebhookNotifier) Name() string { return "webhook" }

type webhookPayload struct {
	Event  string `json:"event"`
	SentAt string `json:"sent_at"`
	Alert  Alert  `json:"alert"`
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	now := w.now().UTC()
	body, err := encode("webhook", webhookPayload{
		Event:  EventStatusChanged,
		SentAt: now.Format(time.RFC3339),
		Alert:  alert,
	})
	if err != nil {
		return err
	}

	ts := strconv.FormatInt(now.Unix(), 10)
	header := http.Header{}
	header.Set(HeaderEvent, EventStatusChanged)
	header.Set(HeaderTimestamp, ts)
	if w.secret != "" {
		header.Set(HeaderSignature, "sha256="+Sign(w.secret, ts, body))
	}
	return post(ctx, w.client, "webhook", w.url, body, header)
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<body>" under secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
