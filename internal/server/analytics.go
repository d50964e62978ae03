package server

import (
	"net/http"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/analytics"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/model"
)

const statsNote = "In-memory stats reset on deploy. Use pull-ga4 for historical data."

type statsResponse struct {
	Success bool               `json:"success"`
	Data    analytics.Snapshot `json:"data"`
	Note    string             `json:"note"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Success: true,
		Data:    s.deps.Counters.Snapshot(),
		Note:    statsNote,
	})
}

type gapsResponse struct {
	Success bool `json:"success"`
	analytics.Gaps
}

func (s *Server) handleGaps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, gapsResponse{
		Success: true,
		Gaps:    s.deps.Counters.Gaps(analytics.DefaultGapsTop),
	})
}

type resetResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	PreviousStats analytics.Snapshot `json:"previous_stats"`
}

// handleReset zeroes the counters. With storage configured the previous
// counters are archived first.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	prev := s.deps.Counters.Reset()
	if s.deps.Storage != nil {
		s.archive(r, prev)
	}
	writeJSON(w, http.StatusOK, resetResponse{
		Success:       true,
		Message:       "Stats reset",
		PreviousStats: prev,
	})
}

func (s *Server) archive(r *http.Request, snap analytics.Snapshot) {
	rec, err := analytics.Archive(snap, model.SourceReset, s.opts.Now())
	if err == nil {
		err = s.deps.Storage.SaveSnapshot(r.Context(), rec)
	}
	if err != nil {
		s.logger.Error("failed to archive analytics", "error", err)
		return
	}
	s.logger.Info("analytics archived", "id", rec.ID, "decodes", rec.Decodes)
}
