package server

import "net/http"

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.deps.Status.Check(r.Context())
	if err != nil {
		s.writeError(w, r, "Status configuration", err)
		return
	}
	for _, p := range report.Providers {
		s.deps.Counters.RecordStatusCheck(p.ID)
	}
	writeJSON(w, http.StatusOK, report)
}
