package pricing_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
)

const testCatalog = `{
  "_metadata": {"last_updated": "2026-03-01", "update_frequency": "daily"},
  "providers": {
    "openai": {"name": "OpenAI", "website": "https://openai.com", "models": {
      "gpt-4o": {"name": "GPT-4o", "input_per_1m": 2.5, "output_per_1m": 10, "context_window": 128000, "notes": "flagship"},
      "gpt-4o-mini": {"name": "GPT-4o Mini", "input_per_1m": 0.15, "output_per_1m": 0.6, "context_window": 128000, "notes": "cheap"}
    }},
    "anthropic": {"name": "Anthropic", "website": "https://anthropic.com", "models": {
      "claude-sonnet-45": {"name": "Claude Sonnet 4.5", "input_per_1m": 3, "output_per_1m": 15, "context_window": 200000, "notes": ""},
      "twin-a": {"name": "Twin A", "input_per_1m": 1, "output_per_1m": 1, "context_window": 1000, "notes": ""},
      "twin-b": {"name": "Twin B", "input_per_1m": 1, "output_per_1m": 1, "context_window": 1000, "notes": ""}
    }}
  }
}`

func loadCatalog(t testing.TB, data string) *catalog.Pricing {
	t.Helper()
	p, err := catalog.ParsePricing([]byte(data))
	require.NoError(t, err)
	return p
}

func fixedCalculator() *pricing.Calculator {
	return pricing.NewCalculator().WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
}

func findResult(t *testing.T, calc *pricing.Calculation, key string) pricing.Result {
	t.Helper()
	for _, r := range calc.Results {
		if r.Key() == key {
			return r
		}
	}
	t.Fatalf("result %s not found", key)
	return pricing.Result{}
}

func TestModelCost_RoundsComponentsBeforeSumming(t *testing.T) {
	p, err := catalog.NewStore(filepath.Join("..", "..", "data")).Pricing()
	require.NoError(t, err)

	volumes := [][2]int64{{1_000_000, 500_000}, {333_333, 777_777}, {1, 1}, {12_345, 0}, {0, 0}}
	for _, v := range volumes {
		for _, e := range p.Entries() {
			cost := pricing.ModelCost(v[0], v[1], e.Model)
			in := pricing.Round(float64(v[0])/1e6*e.Model.InputPer1M, 4)
			out := pricing.Round(float64(v[1])/1e6*e.Model.OutputPer1M, 4)
			assert.Equal(t, pricing.Round(in+out, 4), cost.Total, e.Key())
			assert.Equal(t, in, cost.Input)
			assert.Equal(t, out, cost.Output)
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		x        float64
		decimals int
		want     float64
	}{
		{0.12345678, 4, 0.1235},
		{0.125, 2, 0.12},
		{-1.25, 1, -1.2},
		{0.045, 2, 0.04},
		{2.675, 2, 2.67},
		{0, 4, 0},
		{-0.00001, 4, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pricing.Round(tt.x, tt.decimals), "Round(%v, %d)", tt.x, tt.decimals)
	}
}

func TestModelCost_RoundsExactBinaryValue(t *testing.T) {
	m := catalog.Model{InputPer1M: 0.15, OutputPer1M: 0.15}
	tests := []struct {
		tokens int64
		want   float64
	}{
		{13_000, 0.0019},
		{27_000, 0.004},
		{69_000, 0.0103},
		{167_000, 0.025},
	}
	for _, tt := range tests {
		cost := pricing.ModelCost(tt.tokens, tt.tokens, m)
		assert.Equal(t, tt.want, cost.Input, "%d tokens", tt.tokens)
		assert.Equal(t, tt.want, cost.Output, "%d tokens", tt.tokens)
	}
}

func TestCalculate_SortedAndStable(t *testing.T) {
	calc, err := fixedCalculator().Calculate(loadCatalog(t, testCatalog), pricing.Request{
		InputTokens: 1_000_000, OutputTokens: 500_000,
	})
	require.NoError(t, err)
	require.Len(t, calc.Results, 5)

	for i := 1; i < len(calc.Results); i++ {
		assert.LessOrEqual(t, calc.Results[i-1].MonthlyCost, calc.Results[i].MonthlyCost)
	}

	var order []string
	for _, r := range calc.Results {
		order = append(order, r.Key())
	}
	assert.Equal(t, []string{
		"openai/gpt-4o-mini",
		"anthropic/twin-a",
		"anthropic/twin-b",
		"openai/gpt-4o",
		"anthropic/claude-sonnet-45",
	}, order)

	assert.Equal(t, "openai/gpt-4o-mini", calc.Cheapest.Provider+"/"+calc.Cheapest.Model)
	assert.Equal(t, "claude-sonnet-45", calc.MostExpensive.Model)
	assert.Equal(t, "2026-03-01T12:00:00.000000Z", calc.CalculatedAt)
	assert.Equal(t, pricing.Metadata{LastUpdated: "2026-03-01", ModelCount: 5, ProviderCount: 2, UpdateFrequency: "daily"}, calc.Metadata)
	assert.Equal(t, "2026-03-01", calc.PricingLastUpdated)
	assert.Equal(t, pricing.Usage{InputTokens: 1_000_000, OutputTokens: 500_000}, calc.Usage)
}

func TestCalculate_VsGPT4o(t *testing.T) {
	calc, err := fixedCalculator().Calculate(loadCatalog(t, testCatalog), pricing.Request{
		InputTokens: 1_000_000, OutputTokens: 500_000,
	})
	require.NoError(t, err)

	gpt4o := findResult(t, calc, "openai/gpt-4o")
	assert.Equal(t, 7.5, gpt4o.MonthlyCost)
	assert.Nil(t, gpt4o.VsGPT4oSavingsPercent)

	for _, r := range calc.Results {
		if r.Key() == "openai/gpt-4o" {
			continue
		}
		require.NotNil(t, r.VsGPT4oSavingsPercent, r.Key())
		assert.Equal(t, pricing.Round((7.5-r.MonthlyCost)/7.5*100, 1), *r.VsGPT4oSavingsPercent)
	}
	mini := findResult(t, calc, "openai/gpt-4o-mini")
	assert.Equal(t, 94.0, *mini.VsGPT4oSavingsPercent)
	sonnet := findResult(t, calc, "anthropic/claude-sonnet-45")
	assert.Equal(t, -40.0, *sonnet.VsGPT4oSavingsPercent)
}

func TestCalculate_VsGPT4oAbsentOrFree(t *testing.T) {
	noRef := `{"providers": {"x": {"name": "X", "models": {
		"m": {"name": "M", "input_per_1m": 1, "output_per_1m": 1, "context_window": 10, "notes": ""}}}}}`
	calc, err := fixedCalculator().Calculate(loadCatalog(t, noRef), pricing.Request{InputTokens: 1000, OutputTokens: 1000})
	require.NoError(t, err)
	assert.Nil(t, calc.Results[0].VsGPT4oSavingsPercent)

	calc, err = fixedCalculator().Calculate(loadCatalog(t, testCatalog), pricing.Request{})
	require.NoError(t, err)
	for _, r := range calc.Results {
		assert.Zero(t, r.MonthlyCost)
		assert.Nil(t, r.VsGPT4oSavingsPercent)
	}
	assert.False(t, calc.Savings.HasSavings)
	assert.Zero(t, calc.Savings.SavingsPercentage)
}

func TestCalculate_SelectedModel(t *testing.T) {
	calc, err := fixedCalculator().Calculate(loadCatalog(t, testCatalog), pricing.Request{
		InputTokens: 1_000_000, OutputTokens: 500_000, SelectedModel: "openai/gpt-4o",
	})
	require.NoError(t, err)
	require.True(t, calc.SelectedFound())

	selected := findResult(t, calc, "openai/gpt-4o")
	assert.True(t, selected.IsSelected)

	s := calc.Savings
	assert.Equal(t, "openai/gpt-4o", *s.SelectedModel)
	assert.Equal(t, "GPT-4o", *s.SelectedModelName)
	assert.Equal(t, 7.5, s.SelectedCost)
	assert.Equal(t, "openai/gpt-4o-mini", s.CheapestModel)
	assert.Equal(t, 0.45, s.CheapestCost)
	assert.True(t, s.HasSavings)
	assert.Equal(t, 7.05, s.MonthlySavings)
	assert.Equal(t, 84.6, s.AnnualSavings)
	assert.Equal(t, 94.0, s.SavingsPercentage)
}

func TestCalculate_UnknownSelectedFallsBackToMostExpensive(t *testing.T) {
	calc, err := fixedCalculator().Calculate(loadCatalog(t, testCatalog), pricing.Request{
		InputTokens: 1_000_000, OutputTokens: 500_000, SelectedModel: "openai/gpt-9",
	})
	require.NoError(t, err)
	assert.False(t, calc.SelectedFound())
	for _, r := range calc.Results {
		assert.False(t, r.IsSelected)
	}
	assert.Nil(t, calc.Savings.SelectedModel)
	assert.Zero(t, calc.Savings.SelectedCost)
	// sonnet 10.5 vs mini 0.45
	assert.Equal(t, 10.05, calc.Savings.MonthlySavings)
}

func TestCalculate_EmptyCatalog(t *testing.T) {
	calc, err := fixedCalculator().Calculate(catalog.NewPricing(), pricing.Request{InputTokens: 10, OutputTokens: 10})
	require.NoError(t, err)
	assert.Empty(t, calc.Results)
	assert.Equal(t, "unknown", calc.Cheapest.Provider)
	assert.Equal(t, "Unknown", calc.MostExpensive.ModelName)
	assert.Equal(t, "unknown", calc.Savings.CheapestModel)
	assert.Equal(t, "unknown", calc.PricingLastUpdated)
	assert.Equal(t, "weekly", calc.Metadata.UpdateFrequency)
}

func TestCalculate_NegativeTokens(t *testing.T) {
	_, err := fixedCalculator().Calculate(loadCatalog(t, testCatalog), pricing.Request{InputTokens: -1})
	assert.ErrorIs(t, err, pricing.ErrNegativeTokens)
}

func TestCompare_Ranks(t *testing.T) {
	cmp, err := pricing.Compare(loadCatalog(t, testCatalog), pricing.CompareRequest{
		Models:      []string{"openai/gpt-4o", "openai/gpt-4o-mini"},
		InputTokens: 1_000_000, OutputTokens: 500_000,
	})
	require.NoError(t, err)
	require.Len(t, cmp.Models, 2)

	assert.Equal(t, 1, cmp.Models[0].CostRank)
	assert.Equal(t, 2, cmp.Models[1].CostRank)
	assert.Equal(t, 0.0, cmp.Models[0].CostVsCheapestAmount)
	assert.Equal(t, 0.0, cmp.Models[0].CostVsCheapest)
	assert.Equal(t, 7.05, cmp.Models[1].CostVsCheapestAmount)
	assert.Equal(t, 1566.7, cmp.Models[1].CostVsCheapest)
	assert.Equal(t, "openai/gpt-4o-mini", cmp.Cheapest)
	assert.Equal(t, "openai/gpt-4o", cmp.MostExpensive)
	assert.Equal(t, 7.05, cmp.MaxSavings)
}

func TestCompare_CountCheckedBeforeLookup(t *testing.T) {
	p := loadCatalog(t, testCatalog)
	for _, models := range [][]string{
		{"not-a-key"},
		{"a/b", "c/d", "e/f", "g/h", "i/j", "k/l"},
		nil,
	} {
		_, err := pricing.Compare(p, pricing.CompareRequest{Models: models})
		assert.ErrorIs(t, err, pricing.ErrModelCount)

		var keyErr *pricing.ModelKeyError
		assert.False(t, errors.As(err, &keyErr))
	}
}

func TestCompare_KeyErrors(t *testing.T) {
	p := loadCatalog(t, testCatalog)
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"missing separator", "invalid-model", "Invalid model format: invalid-model. Use 'provider/model'"},
		{"unknown provider", "unknown/model", "Unknown provider: unknown"},
		{"unknown model", "openai/unknown-model", "Unknown model: openai/unknown-model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pricing.Compare(p, pricing.CompareRequest{
				Models: []string{tt.key, "openai/gpt-4o"},
			})
			var keyErr *pricing.ModelKeyError
			require.ErrorAs(t, err, &keyErr)
			assert.Equal(t, tt.want, keyErr.Error())
			assert.Equal(t, tt.key, keyErr.Key)
		})
	}
}

func TestCompare_ZeroCostCheapest(t *testing.T) {
	cmp, err := pricing.Compare(loadCatalog(t, testCatalog), pricing.CompareRequest{
		Models: []string{"openai/gpt-4o", "anthropic/twin-a"},
	})
	require.NoError(t, err)
	for _, m := range cmp.Models {
		assert.Zero(t, m.CostVsCheapest)
	}
}

func BenchmarkCalculate(b *testing.B) {
	p := loadCatalog(b, testCatalog)
	c := pricing.NewCalculator()
	req := pricing.Request{InputTokens: 1_000_000, OutputTokens: 500_000, SelectedModel: "openai/gpt-4o"}
	for b.Loop() {
		_, _ = c.Calculate(p, req)
	}
}
