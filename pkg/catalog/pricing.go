package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// NewPricing returns an empty pricing catalog.
func NewPricing() *Pricing {
	return &Pricing{Providers: orderedmap.New[string, Provider]()}
}

// LoadPricing reads and validates a pricing catalog file.
func LoadPricing(path string) (*Pricing, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParsePricing(data)
	if err != nil {
		return nil, fmt.Errorf("pricing catalog %s: %w: %w", path, ErrUnavailable, err)
	}
	return p, nil
}

// ParsePricing decodes and validates pricing catalog JSON.
func ParsePricing(data []byte) (*Pricing, error) {
	p := NewPricing()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if p.Providers == nil {
		p.Providers = orderedmap.New[string, Provider]()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that every provider is named and every model is priced.
func (p *Pricing) Validate() error {
	for pair := p.Providers.Oldest(); pair != nil; pair = pair.Next() {
		prov := pair.Value
		if prov.Name == "" {
			return fmt.Errorf("provider %s: missing name", pair.Key)
		}
		if prov.Models == nil {
			continue
		}
		for m := prov.Models.Oldest(); m != nil; m = m.Next() {
			key := pair.Key + "/" + m.Key
			switch {
			case m.Value.Name == "":
				return fmt.Errorf("model %s: missing name", key)
			case m.Value.InputPer1M < 0 || m.Value.OutputPer1M < 0:
				return fmt.Errorf("model %s: negative price", key)
			case m.Value.ContextWindow <= 0:
				return fmt.Errorf("model %s: context window must be positive", key)
			}
		}
	}
	return nil
}

// Entries flattens the catalog in file order.
func (p *Pricing) Entries() []Entry {
	var out []Entry
	for pair := p.Providers.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Models == nil {
			continue
		}
		for m := pair.Value.Models.Oldest(); m != nil; m = m.Next() {
			out = append(out, Entry{
				ProviderID: pair.Key,
				Provider:   pair.Value,
				ModelID:    m.Key,
				Model:      m.Value,
			})
		}
	}
	return out
}

// ModelCount returns the number of models across all providers.
func (p *Pricing) ModelCount() int {
	n := 0
	for pair := p.Providers.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Models != nil {
			n += pair.Value.Models.Len()
		}
	}
	return n
}

// LastUpdated returns the catalog date, or "unknown".
func (p *Pricing) LastUpdated() string {
	if p.Metadata.LastUpdated == "" {
		return "unknown"
	}
	return p.Metadata.LastUpdated
}

// UpdateFrequency returns the declared refresh cadence, default "weekly".
func (p *Pricing) UpdateFrequency() string {
	if p.Metadata.UpdateFrequency == "" {
		return "weekly"
	}
	return p.Metadata.UpdateFrequency
}

// Marshal encodes the catalog as indented JSON with a trailing newline.
func (p *Pricing) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode pricing catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePricing atomically replaces the catalog file at path.
func WritePricing(path string, p *Pricing) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write pricing catalog %s: %w", path, err)
	}
	return nil
}
