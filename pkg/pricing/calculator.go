package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
)

// Reference model for the vs_gpt4o_savings_percent column.
const (
	ReferenceProvider = "openai"
	ReferenceModel    = "gpt-4o"
)

// Compare accepts between MinCompare and MaxCompare model keys.
const (
	MinCompare = 2
	MaxCompare = 5
)

var (
	ErrNegativeTokens = errors.New("token counts must be non-negative")
	ErrModelCount     = fmt.Errorf("compare requires between %d and %d models", MinCompare, MaxCompare)
)

// ModelKeyError reports a compare key that does not resolve to a catalog model.
type ModelKeyError struct {
	Key     string
	Message string
}

func (e *ModelKeyError) Error() string { return e.Message }

// Cost is the rounded price of one model for a token volume.
type Cost struct {
	Input  float64
	Output float64
	Total  float64
}

// ModelCost prices a token volume. Input and output costs are rounded to
// 4 decimals first and the total is the rounded sum of the rounded parts.
func ModelCost(inputTokens, outputTokens int64, m catalog.Model) Cost {
	in := Round(float64(inputTokens)/1_000_000*m.InputPer1M, 4)
	out := Round(float64(outputTokens)/1_000_000*m.OutputPer1M, 4)
	return Cost{Input: in, Output: out, Total: Round(in+out, 4)}
}

// Round rounds x to the given number of decimals. The exact binary value
// of x is rounded, so 2.675 becomes 2.67, and exact ties go to even.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	if r == 0 {
		return 0
	}
	return r
}

// Calculator prices every catalog model for a monthly token volume.
type Calculator struct {
	now func() time.Time
}

// NewCalculator creates a calculator stamping results with the current UTC time.
func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// WithClock replaces the clock used for calculated_at.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Timestamp formats t the way all tool responses do.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// Calculate returns every model sorted by monthly cost, cheapest first.
// Models with equal cost keep catalog order.
func (c *Calculator) Calculate(p *catalog.Pricing, req Request) (*Calculation, error) {
	if req.InputTokens < 0 || req.OutputTokens < 0 {
		return nil, ErrNegativeTokens
	}

	entries := p.Entries()
	results := make([]Result, 0, len(entries))
	var refCost *float64
	for _, e := range entries {
		cost := ModelCost(req.InputTokens, req.OutputTokens, e.Model)
		if e.ProviderID == ReferenceProvider && e.ModelID == ReferenceModel {
			total := cost.Total
			refCost = &total
		}
		results = append(results, Result{
			Provider:      e.ProviderID,
			ProviderName:  e.Provider.Name,
			Model:         e.ModelID,
			ModelName:     e.Model.Name,
			MonthlyCost:   cost.Total,
			InputCost:     cost.Input,
			OutputCost:    cost.Output,
			IsSelected:    req.SelectedModel != "" && e.Key() == req.SelectedModel,
			ContextWindow: e.Model.ContextWindow,
			Notes:         e.Model.Notes,
		})
	}

	if refCost != nil && *refCost > 0 {
		ref := *refCost
		for i := range results {
			r := &results[i]
			if r.Provider == ReferenceProvider && r.Model == ReferenceModel {
				continue
			}
			pct := Round((ref-r.MonthlyCost)/ref*100, 1)
			r.VsGPT4oSavingsPercent = &pct
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MonthlyCost < results[j].MonthlyCost
	})

	calc := &Calculation{
		Success:            true,
		CalculatedAt:       Timestamp(c.now()),
		Usage:              Usage{InputTokens: req.InputTokens, OutputTokens: req.OutputTokens},
		Results:            results,
		Cheapest:           unknownSummary(),
		MostExpensive:      unknownSummary(),
		Savings:            Savings{CheapestModel: "unknown", CheapestModelName: "Unknown"},
		PricingLastUpdated: p.LastUpdated(),
		Metadata: Metadata{
			LastUpdated:     p.LastUpdated(),
			ModelCount:      p.ModelCount(),
			ProviderCount:   p.Providers.Len(),
			UpdateFrequency: p.UpdateFrequency(),
		},
	}
	if len(results) == 0 {
		return calc, nil
	}

	cheapest := results[0]
	mostExpensive := results[len(results)-1]
	calc.Cheapest = summarize(cheapest)
	calc.MostExpensive = summarize(mostExpensive)

	var selected *Result
	if req.SelectedModel != "" {
		for i := range results {
			if results[i].Key() == req.SelectedModel {
				selected = &results[i]
				break
			}
		}
	}
	baseline := mostExpensive
	if selected != nil {
		baseline = *selected
	}
	calc.Savings = savings(baseline, cheapest, selected)
	return calc, nil
}

func savings(baseline, cheapest Result, selected *Result) Savings {
	monthly := baseline.MonthlyCost - cheapest.MonthlyCost
	pct := 0.0
	if baseline.MonthlyCost > 0 {
		pct = monthly / baseline.MonthlyCost * 100
	}
	s := Savings{
		HasSavings:        monthly > 0.01,
		CheapestModel:     cheapest.Key(),
		CheapestModelName: cheapest.ModelName,
		CheapestCost:      cheapest.MonthlyCost,
		MonthlySavings:    Round(monthly, 2),
		AnnualSavings:     Round(monthly*12, 2),
		SavingsPercentage: Round(pct, 1),
	}
	if selected != nil {
		key, name := selected.Key(), selected.ModelName
		s.SelectedModel = &key
		s.SelectedModelName = &name
		s.SelectedCost = selected.MonthlyCost
	}
	return s
}

func summarize(r Result) ModelSummary {
	return ModelSummary{Provider: r.Provider, Model: r.Model, ModelName: r.ModelName, MonthlyCost: r.MonthlyCost}
}

func unknownSummary() ModelSummary {
	return ModelSummary{Provider: "unknown", Model: "unknown", ModelName: "Unknown"}
}

// Compare ranks the requested models by monthly cost. The model count is
// checked before any catalog lookup.
func Compare(p *catalog.Pricing, req CompareRequest) (*Comparison, error) {
	if len(req.Models) < MinCompare || len(req.Models) > MaxCompare {
		return nil, ErrModelCount
	}
	if req.InputTokens < 0 || req.OutputTokens < 0 {
		return nil, ErrNegativeTokens
	}

	models := make([]ComparedModel, 0, len(req.Models))
	for _, key := range req.Models {
		providerID, modelID, ok := strings.Cut(key, "/")
		if !ok {
			return nil, &ModelKeyError{Key: key, Message: fmt.Sprintf("Invalid model format: %s. Use 'provider/model'", key)}
		}
		prov, ok := p.Providers.Get(providerID)
		if !ok {
			return nil, &ModelKeyError{Key: key, Message: fmt.Sprintf("Unknown provider: %s", providerID)}
		}
		var m catalog.Model
		found := false
		if prov.Models != nil {
			m, found = prov.Models.Get(modelID)
		}
		if !found {
			return nil, &ModelKeyError{Key: key, Message: fmt.Sprintf("Unknown model: %s", key)}
		}
		cost := ModelCost(req.InputTokens, req.OutputTokens, m)
		models = append(models, ComparedModel{
			Provider:      providerID,
			ProviderName:  prov.Name,
			Model:         modelID,
			ModelName:     m.Name,
			MonthlyCost:   cost.Total,
			InputCost:     cost.Input,
			OutputCost:    cost.Output,
			ContextWindow: m.ContextWindow,
			Notes:         m.Notes,
		})
	}

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].MonthlyCost < models[j].MonthlyCost
	})

	cheapest := models[0].MonthlyCost
	for i := range models {
		diff := models[i].MonthlyCost - cheapest
		pct := 0.0
		if cheapest > 0 {
			pct = diff / cheapest * 100
		}
		models[i].CostRank = i + 1
		models[i].CostVsCheapest = Round(pct, 1)
		models[i].CostVsCheapestAmount = Round(diff, 2)
	}

	first, last := models[0], models[len(models)-1]
	return &Comparison{
		Success:       true,
		Models:        models,
		Cheapest:      first.Provider + "/" + first.Model,
		MostExpensive: last.Provider + "/" + last.Model,
		MaxSavings:    Round(last.MonthlyCost-cheapest, 2),
		Usage:         Usage{InputTokens: req.InputTokens, OutputTokens: req.OutputTokens},
	}, nil
}
