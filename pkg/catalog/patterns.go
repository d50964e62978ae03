package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LoadPatterns reads and validates an error pattern catalog file.
func LoadPatterns(path string) (*Patterns, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParsePatterns(data)
	if err != nil {
		return nil, fmt.Errorf("pattern catalog %s: %w: %w", path, ErrUnavailable, err)
	}
	return p, nil
}

// ParsePatterns decodes and validates error pattern JSON.
func ParsePatterns(data []byte) (*Patterns, error) {
	var p Patterns
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	seen := make(map[string]bool, len(p.Patterns))
	for i, pat := range p.Patterns {
		if pat.ID == "" {
			return nil, fmt.Errorf("pattern %d: missing id", i)
		}
		if seen[pat.ID] {
			return nil, fmt.Errorf("pattern %s: duplicate id", pat.ID)
		}
		seen[pat.ID] = true
		if pat.Title == "" {
			return nil, fmt.Errorf("pattern %s: missing title", pat.ID)
		}
		if pat.Severity != SeverityError && pat.Severity != SeverityWarning {
			return nil, fmt.Errorf("pattern %s: invalid severity %q", pat.ID, pat.Severity)
		}
	}
	return &p, nil
}

// ProviderNames returns the sorted unique provider names of the catalog.
// Patterns without a provider are reported as "Unknown".
func (p *Patterns) ProviderNames() []string {
	set := make(map[string]struct{})
	for _, pat := range p.Patterns {
		name := pat.Provider
		if name == "" {
			name = "Unknown"
		}
		set[name] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
