package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/analytics"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/mailchimp"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/status"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/storage"
)

// Service identity reported by the health endpoint.
const (
	ServiceName = "AI-Buzz Tools API"
	Version     = "2.0.0"
)

// DefaultAPIBase is where the widgets are served from when nothing is configured.
const DefaultAPIBase = "https://ai-buzz-tools.onrender.com"

// StatusChecker returns the aggregated provider status.
type StatusChecker interface {
	Check(ctx context.Context) (*status.Report, bool, error)
}

// Subscriber syncs email signups to the mailing list.
type Subscriber interface {
	Subscribe(ctx context.Context, email, tool string, interests []string) mailchimp.Result
}

// Deps are the components the handlers work on. Subscriber and Storage
// may be nil.
type Deps struct {
	Catalog    *catalog.Store
	Counters   *analytics.Counters
	Status     StatusChecker
	Subscriber Subscriber
	Storage    storage.Storage
	Logger     *slog.Logger
}

// Options tune the presentation of the API.
type Options struct {
	APIBaseURL  string
	GitCommit   string
	CORSOrigins []string
	Now         func() time.Time
}

// Server serves the tool endpoints, widgets and analytics.
type Server struct {
	deps       Deps
	opts       Options
	calculator *pricing.Calculator
	started    time.Time
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates an API server.
func NewServer(deps Deps, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBase
	}
	if opts.GitCommit == "" {
		opts.GitCommit = "local"
	}
	s := &Server{
		deps:       deps,
		opts:       opts,
		calculator: pricing.NewCalculator().WithClock(opts.Now),
		started:    opts.Now(),
		mux:        http.NewServeMux(),
		logger:     deps.Logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /pricing/models", s.handlePricingModels)
	s.mux.HandleFunc("POST /pricing/calculate", s.handleCalculate)
	s.mux.HandleFunc("GET /pricing/calculate", s.handleCalculateQuery)
	s.mux.HandleFunc("POST /pricing/compare", s.handleCompare)
	s.mux.HandleFunc("POST /pricing/estimate", s.handleEstimate)

	s.mux.HandleFunc("POST /error-decoder/decode", s.handleDecode)
	s.mux.HandleFunc("GET /error-decoder/decode", s.handleDecodeQuery)
	s.mux.HandleFunc("GET /error-decoder/patterns", s.handlePatterns)

	s.mux.HandleFunc("GET /status/check", s.handleStatus)

	for _, t := range subscribeTools {
		s.mux.HandleFunc("POST "+t.prefix+"/alerts/subscribe", s.handleSubscribe(t))
	}

	s.mux.HandleFunc("GET /{prefix}/widget", s.handleWidget)
	s.mux.HandleFunc("GET /embed.js", s.handleEmbed)

	s.mux.HandleFunc("GET /analytics/stats", s.handleStats)
	s.mux.HandleFunc("GET /analytics/gaps", s.handleGaps)
	s.mux.HandleFunc("GET /analytics/reset", s.handleReset)
}

// Handler returns the HTTP handler for this server, wrapped in the
// request id, logging, recovery and CORS middleware.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		s.recoverPanics,
		s.logRequests,
		withRequestID,
		cors(s.opts.CORSOrigins),
	)
}

type uptime struct {
	Seconds   int64  `json:"seconds"`
	Formatted string `json:"formatted"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	GitCommit string            `json:"git_commit"`
	Uptime    uptime            `json:"uptime"`
	Tools     map[string]string `json:"tools"`
}

func formatUptime(d time.Duration) uptime {
	secs := int64(d / time.Second)
	return uptime{
		Seconds:   secs,
		Formatted: fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60),
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Version:   Version,
		GitCommit: s.opts.GitCommit,
		Uptime:    formatUptime(s.opts.Now().Sub(s.started)),
		Tools: map[string]string{
			"pricing":       "available",
			"status":        "available",
			"error_decoder": "available",
			"tools_landing": "available",
			"analytics":     "available",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
