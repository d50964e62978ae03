package server

import (
	"net/http"
	"strings"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/decoder"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
)

const patternsResource = "Error patterns"

type decodeRequest struct {
	ErrorMessage *string `json:"error_message"`
}

type decodeResponse struct {
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message"`
	Decoded      *decoder.Match `json:"decoded"`
	Suggestions  []string       `json:"suggestions"`
	DecodedAt    string         `json:"decoded_at"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var body decodeRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, patternsResource, err)
		return
	}
	if body.ErrorMessage == nil {
		s.writeError(w, r, patternsResource, invalid("error_message is required"))
		return
	}
	s.decode(w, r, *body.ErrorMessage)
}

func (s *Server) handleDecodeQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("error_message") {
		s.writeError(w, r, patternsResource, invalid("error_message is required"))
		return
	}
	s.decode(w, r, q.Get("error_message"))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		s.writeError(w, r, patternsResource, invalid("error_message must not be empty"))
		return
	}
	pats, err := s.deps.Catalog.Patterns()
	if err != nil {
		s.writeError(w, r, patternsResource, err)
		return
	}

	match, ok := decoder.Decode(message, pats.Patterns)
	s.deps.Counters.RecordDecode(message, ok)

	resp := decodeResponse{
		Success:      true,
		ErrorMessage: message,
		Decoded:      match,
		Suggestions:  []string{},
		DecodedAt:    pricing.Timestamp(s.opts.Now()),
	}
	if !ok {
		resp.Suggestions = decoder.Suggestions
	}
	writeJSON(w, http.StatusOK, resp)
}

type patternsResponse struct {
	Success     bool              `json:"success"`
	Patterns    []catalog.Pattern `json:"patterns"`
	Providers   []string          `json:"providers"`
	LastUpdated string            `json:"last_updated"`
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	pats, err := s.deps.Catalog.Patterns()
	if err != nil {
		s.writeError(w, r, patternsResource, err)
		return
	}
	updated := pats.Metadata.LastUpdated
	if strings.TrimSpace(updated) == "" {
		updated = "unknown"
	}
	writeJSON(w, http.StatusOK, patternsResponse{
		Success:     true,
		Patterns:    pats.Patterns,
		Providers:   pats.ProviderNames(),
		LastUpdated: updated,
	})
}
