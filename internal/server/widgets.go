package server

import (
	"net/http"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/widgets"
)

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	path := "/" + r.PathValue("prefix") + "/widget"
	for _, wd := range widgets.All {
		if wd.Path != path {
			continue
		}
		html, err := widgets.HTML(wd.File)
		if err != nil {
			s.logger.Error("widget file missing", "file", wd.File, "error", err)
			break
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(html)
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody{Detail: "Widget file not found"})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	script, err := widgets.EmbedScript(s.opts.APIBaseURL)
	if err != nil {
		s.writeError(w, r, "Embed script", err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(script)
}
