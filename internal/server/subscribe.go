package server

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/mailchimp"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/model"
)

type subscribeTool struct {
	prefix    string
	tool      string
	interests []string
	message   string
}

var subscribeTools = []subscribeTool{
	{"/pricing", "pricing-calculator", []string{"interest:price-alerts"}, "Successfully subscribed to price alerts!"},
	{"/error-decoder", "error-decoder", []string{"interest:error-tips"}, "Successfully subscribed to error decoder updates!"},
	{"/status", "status-page", []string{"interest:status-alerts"}, "Successfully subscribed to outage alerts!"},
	{"/tools", "tools-landing", []string{"interest:new-tools"}, "Successfully subscribed! You'll be notified when we launch new tools."},
}

type subscribeBody struct {
	Email string `json:"email"`
}

type subscribeResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	MailchimpSynced bool   `json:"mailchimp_synced"`
}

func validEmail(raw string) (string, bool) {
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", false
	}
	at := strings.LastIndexByte(addr.Address, '@')
	if at < 1 || !strings.Contains(addr.Address[at+1:], ".") {
		return "", false
	}
	return addr.Address, true
}

// handleSubscribe never reports an upstream failure to the caller; the
// mailchimp_synced flag carries the real outcome.
func (s *Server) handleSubscribe(t subscribeTool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body subscribeBody
		if err := decodeBody(r, &body); err != nil {
			s.writeError(w, r, "Subscription", err)
			return
		}
		email, ok := validEmail(strings.TrimSpace(body.Email))
		if !ok {
			s.writeError(w, r, "Subscription", invalid("email must be a valid email address"))
			return
		}

		res := mailchimp.Result{Outcome: mailchimp.NotConfigured, Tags: mailchimp.Tags(t.tool, t.interests)}
		if s.deps.Subscriber != nil {
			res = s.deps.Subscriber.Subscribe(r.Context(), email, t.tool, t.interests)
		}

		if s.deps.Storage != nil {
			sub := &model.Subscription{
				Email:     email,
				Tool:      t.tool,
				Tags:      res.Tags,
				Outcome:   string(res.Outcome),
				CreatedAt: s.opts.Now(),
			}
			if err := s.deps.Storage.RecordSubscription(r.Context(), sub); err != nil {
				s.logger.Error("failed to record subscription", "tool", t.tool, "error", err)
			}
		}

		writeJSON(w, http.StatusOK, subscribeResponse{
			Success:         true,
			Message:         t.message,
			MailchimpSynced: res.Synced(),
		})
	}
}
