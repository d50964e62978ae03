package catalog

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Catalog file names inside the data directory.
const (
	PricingFile  = "pricing_data.json"
	PatternsFile = "error_patterns.json"
	StatusFile   = "status_providers.json"
)

// Metadata is the "_metadata" block shared by the catalog files.
type Metadata struct {
	LastUpdated     string            `json:"last_updated"`
	UpdateFrequency string            `json:"update_frequency,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Sources         map[string]string `json:"sources,omitempty"`
}

// Model is the price sheet of one model. Prices are USD per 1M tokens.
type Model struct {
	Name          string  `json:"name"`
	InputPer1M    float64 `json:"input_per_1m"`
	OutputPer1M   float64 `json:"output_per_1m"`
	ContextWindow int     `json:"context_window"`
	Notes         string  `json:"notes"`
}

// Provider groups the models sold by one vendor. Model order follows the file.
type Provider struct {
	Name    string                                `json:"name"`
	Website string                                `json:"website"`
	Models  *orderedmap.OrderedMap[string, Model] `json:"models"`
}

// Pricing is the pricing catalog. Provider order follows the file and is
// the tie-break order of cost rankings.
type Pricing struct {
	Metadata  Metadata                                 `json:"_metadata"`
	Providers *orderedmap.OrderedMap[string, Provider] `json:"providers"`
}

// Entry is one model flattened together with its provider.
type Entry struct {
	ProviderID string
	Provider   Provider
	ModelID    string
	Model      Model
}

// Key returns the "provider/model" identifier of the entry.
func (e Entry) Key() string {
	return e.ProviderID + "/" + e.ModelID
}

// Severity levels of an error pattern.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Pattern maps trigger keywords to an explanation of an API error.
type Pattern struct {
	ID          string   `json:"id"`
	Provider    string   `json:"provider"`
	ProviderID  string   `json:"provider_id"`
	Keywords    []string `json:"error_keywords"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Fix         string   `json:"fix"`
	Severity    string   `json:"severity"`
	Common      bool     `json:"common"`
	DocsURL     string   `json:"docs_url,omitempty"`
}

// Patterns is the error pattern catalog.
type Patterns struct {
	Metadata Metadata  `json:"_metadata"`
	Patterns []Pattern `json:"patterns"`
}

// StatusProvider describes how to probe one provider API.
type StatusProvider struct {
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	Method     string `json:"method,omitempty"`
	StatusPage string `json:"status_page"`
}

// StatusRegistry is the list of providers checked by the status page.
type StatusRegistry struct {
	Providers *orderedmap.OrderedMap[string, StatusProvider] `json:"providers"`
}
