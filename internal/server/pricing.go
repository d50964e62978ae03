package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/tokenizer"
)

const pricingResource = "Pricing data"

// Defaults of the shareable GET calculator link.
const (
	defaultQueryInput  = 1_000_000
	defaultQueryOutput = 500_000
)

// Estimate defaults.
const (
	defaultEstimateModel   = "openai/gpt-4o"
	defaultOutputRatio     = 0.5
	defaultMonthlyRequests = 1000
	maxMonthlyRequests     = 1_000_000_000
)

var errTokensTooLarge = invalid("estimated monthly tokens are too large; lower monthly_requests or output_ratio")

type modelsResponse struct {
	Success     bool                                             `json:"success"`
	LastUpdated string                                           `json:"last_updated"`
	Providers   *orderedmap.OrderedMap[string, catalog.Provider] `json:"providers"`
}

func (s *Server) handlePricingModels(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Catalog.Pricing()
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, modelsResponse{
		Success:     true,
		LastUpdated: p.LastUpdated(),
		Providers:   p.Providers,
	})
}

type calculateBody struct {
	InputTokens   *int64  `json:"input_tokens_monthly"`
	OutputTokens  *int64  `json:"output_tokens_monthly"`
	SelectedModel *string `json:"selected_model"`
}

func (b calculateBody) request() (pricing.Request, error) {
	switch {
	case b.InputTokens == nil:
		return pricing.Request{}, invalid("input_tokens_monthly is required")
	case b.OutputTokens == nil:
		return pricing.Request{}, invalid("output_tokens_monthly is required")
	case *b.InputTokens < 0:
		return pricing.Request{}, invalid("input_tokens_monthly must be greater than or equal to 0")
	case *b.OutputTokens < 0:
		return pricing.Request{}, invalid("output_tokens_monthly must be greater than or equal to 0")
	}
	req := pricing.Request{InputTokens: *b.InputTokens, OutputTokens: *b.OutputTokens}
	if b.SelectedModel != nil {
		req.SelectedModel = *b.SelectedModel
	}
	return req, nil
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var body calculateBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	req, err := body.request()
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	s.calculate(w, r, req)
}

func (s *Server) handleCalculateQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in, err := queryInt(q.Get("input_tokens"), "input_tokens", defaultQueryInput)
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	out, err := queryInt(q.Get("output_tokens"), "output_tokens", defaultQueryOutput)
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	body := calculateBody{InputTokens: &in, OutputTokens: &out}
	if sel := q.Get("selected_model"); sel != "" {
		body.SelectedModel = &sel
	}
	req, err := body.request()
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	s.calculate(w, r, req)
}

func queryInt(raw, name string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, invalid("%s must be an integer", name)
	}
	return v, nil
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request, req pricing.Request) {
	calc, err := s.runCalculation(req)
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

// runCalculation prices the request and records it in the usage counters.
func (s *Server) runCalculation(req pricing.Request) (*pricing.Calculation, error) {
	p, err := s.deps.Catalog.Pricing()
	if err != nil {
		return nil, err
	}
	calc, err := s.calculator.Calculate(p, req)
	if err != nil {
		return nil, err
	}
	s.deps.Counters.RecordCalculation(req.InputTokens, req.OutputTokens)
	if req.SelectedModel != "" && !calc.SelectedFound() {
		s.deps.Counters.RecordModelNotFound(req.SelectedModel)
	}
	return calc, nil
}

type compareBody struct {
	Models       []string `json:"models"`
	InputTokens  *int64   `json:"input_tokens_monthly"`
	OutputTokens *int64   `json:"output_tokens_monthly"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body compareBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	if body.Models == nil {
		s.writeError(w, r, pricingResource, invalid("models is required"))
		return
	}
	calc, err := calculateBody{InputTokens: body.InputTokens, OutputTokens: body.OutputTokens}.request()
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}

	p, err := s.deps.Catalog.Pricing()
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	cmp, err := pricing.Compare(p, pricing.CompareRequest{
		Models:       body.Models,
		InputTokens:  calc.InputTokens,
		OutputTokens: calc.OutputTokens,
	})
	if err != nil {
		var kerr *pricing.ModelKeyError
		if errors.As(err, &kerr) {
			s.deps.Counters.RecordModelNotFound(kerr.Key)
		}
		s.writeError(w, r, pricingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

type estimateBody struct {
	Text            string   `json:"text"`
	Model           string   `json:"model"`
	OutputRatio     *float64 `json:"output_ratio"`
	MonthlyRequests *int64   `json:"monthly_requests"`
}

type perRequest struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type estimateResponse struct {
	Success         bool                 `json:"success"`
	Model           string               `json:"model"`
	Tokens          tokenizer.Count      `json:"tokens"`
	PerRequest      perRequest           `json:"per_request"`
	MonthlyRequests int64                `json:"monthly_requests"`
	Calculation     *pricing.Calculation `json:"calculation"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body estimateBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.writeError(w, r, pricingResource, invalid("text must not be empty"))
		return
	}
	model := body.Model
	if model == "" {
		model = defaultEstimateModel
	}
	ratio := defaultOutputRatio
	if body.OutputRatio != nil {
		ratio = *body.OutputRatio
	}
	if ratio < 0 {
		s.writeError(w, r, pricingResource, invalid("output_ratio must be greater than or equal to 0"))
		return
	}
	requests := int64(defaultMonthlyRequests)
	if body.MonthlyRequests != nil {
		requests = *body.MonthlyRequests
	}
	if requests < 1 {
		s.writeError(w, r, pricingResource, invalid("monthly_requests must be greater than or equal to 1"))
		return
	}
	if requests > maxMonthlyRequests {
		s.writeError(w, r, pricingResource, invalid("monthly_requests must be less than or equal to %d", maxMonthlyRequests))
		return
	}

	provider, modelID := tokenizer.SplitModelKey(model)
	count, err := tokenizer.CountTokens(body.Text, provider, modelID)
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	// monthly totals must fit in int64
	limit := math.MaxInt64 / requests
	if float64(count.Tokens)*ratio >= float64(limit) {
		s.writeError(w, r, pricingResource, errTokensTooLarge)
		return
	}
	per := perRequest{InputTokens: count.Tokens, OutputTokens: tokenizer.OutputTokens(count.Tokens, ratio)}
	if per.InputTokens > limit || per.OutputTokens < 0 || per.OutputTokens > limit {
		s.writeError(w, r, pricingResource, errTokensTooLarge)
		return
	}

	calc, err := s.runCalculation(pricing.Request{
		InputTokens:   per.InputTokens * requests,
		OutputTokens:  per.OutputTokens * requests,
		SelectedModel: provider + "/" + modelID,
	})
	if err != nil {
		s.writeError(w, r, pricingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, estimateResponse{
		Success:         true,
		Model:           provider + "/" + modelID,
		Tokens:          count,
		PerRequest:      per,
		MonthlyRequests: requests,
		Calculation:     calc,
	})
}
