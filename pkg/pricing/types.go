package pricing

// Request asks for the monthly cost of every catalog model.
type Request struct {
	InputTokens   int64  `json:"input_tokens_monthly"`
	OutputTokens  int64  `json:"output_tokens_monthly"`
	SelectedModel string `json:"selected_model,omitempty"`
}

// Usage echoes the token volumes a calculation was made for.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Result is the monthly cost of one model.
type Result struct {
	Provider              string   `json:"provider"`
	ProviderName          string   `json:"provider_name"`
	Model                 string   `json:"model"`
	ModelName             string   `json:"model_name"`
	MonthlyCost           float64  `json:"monthly_cost"`
	InputCost             float64  `json:"input_cost"`
	OutputCost            float64  `json:"output_cost"`
	IsSelected            bool     `json:"is_selected"`
	ContextWindow         int      `json:"context_window"`
	Notes                 string   `json:"notes"`
	VsGPT4oSavingsPercent *float64 `json:"vs_gpt4o_savings_percent"`
}

// Key returns the "provider/model" identifier of the result.
func (r Result) Key() string {
	return r.Provider + "/" + r.Model
}

// ModelSummary names a model and its monthly cost.
type ModelSummary struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	ModelName   string  `json:"model_name"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// Savings compares the selected (or most expensive) model with the cheapest.
type Savings struct {
	HasSavings        bool    `json:"has_savings"`
	SelectedModel     *string `json:"selected_model"`
	SelectedModelName *string `json:"selected_model_name"`
	SelectedCost      float64 `json:"selected_cost"`
	CheapestModel     string  `json:"cheapest_model"`
	CheapestModelName string  `json:"cheapest_model_name"`
	CheapestCost      float64 `json:"cheapest_cost"`
	MonthlySavings    float64 `json:"monthly_savings"`
	AnnualSavings     float64 `json:"annual_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// Metadata describes the catalog a calculation was made against.
type Metadata struct {
	LastUpdated     string `json:"last_updated"`
	ModelCount      int    `json:"model_count"`
	ProviderCount   int    `json:"provider_count"`
	UpdateFrequency string `json:"update_frequency"`
}

// Calculation is the full calculator response.
type Calculation struct {
	Success            bool         `json:"success"`
	CalculatedAt       string       `json:"calculated_at"`
	Usage              Usage        `json:"usage"`
	Results            []Result     `json:"results"`
	Cheapest           ModelSummary `json:"cheapest"`
	MostExpensive      ModelSummary `json:"most_expensive"`
	Savings            Savings      `json:"savings"`
	PricingLastUpdated string       `json:"pricing_last_updated"`
	Metadata           Metadata     `json:"metadata"`
}

// SelectedFound reports whether the requested model resolved to a catalog entry.
func (c *Calculation) SelectedFound() bool {
	return c.Savings.SelectedModel != nil
}

// CompareRequest asks for a side-by-side ranking of 2 to 5 models.
type CompareRequest struct {
	Models       []string `json:"models"`
	InputTokens  int64    `json:"input_tokens_monthly"`
	OutputTokens int64    `json:"output_tokens_monthly"`
}

// ComparedModel is one ranked entry of a comparison.
type ComparedModel struct {
	Provider             string  `json:"provider"`
	ProviderName         string  `json:"provider_name"`
	Model                string  `json:"model"`
	ModelName            string  `json:"model_name"`
	MonthlyCost          float64 `json:"monthly_cost"`
	InputCost            float64 `json:"input_cost"`
	OutputCost           float64 `json:"output_cost"`
	ContextWindow        int     `json:"context_window"`
	Notes                string  `json:"notes"`
	CostRank             int     `json:"cost_rank"`
	CostVsCheapest       float64 `json:"cost_vs_cheapest"`
	CostVsCheapestAmount float64 `json:"cost_vs_cheapest_amount"`
}

// Comparison is the compare response.
type Comparison struct {
	Success       bool            `json:"success"`
	Models        []ComparedModel `json:"models"`
	Cheapest      string          `json:"cheapest"`
	MostExpensive string          `json:"most_expensive"`
	MaxSavings    float64         `json:"max_savings"`
	Usage         Usage           `json:"usage"`
}
