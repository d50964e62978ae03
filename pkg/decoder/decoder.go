// Package decoder explains API error messages by matching them against a
// catalog of keyword-triggered patterns.
package decoder

import (
	"sort"
	"strings"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
)

// Confidence tiers of a match.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Suggestions are returned when no pattern matches.
var Suggestions = []string{
	"Check your API key and authentication",
	"Verify your request parameters are correct",
	"Check the API documentation for the specific error",
	"Ensure your network connection is stable",
	"Try again after a few moments (may be temporary)",
}

// Match is a pattern that hit at least one keyword of a message.
type Match struct {
	Pattern         catalog.Pattern `json:"pattern"`
	Confidence      string          `json:"confidence"`
	MatchedKeywords []string        `json:"matched_keywords"`
	score           float64
}

// MatchPattern counts the pattern keywords found in message, ignoring case.
// It returns false when none are present.
func MatchPattern(message string, p catalog.Pattern) (Match, bool) {
	lower := strings.ToLower(message)
	var matched []string
	for _, kw := range p.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return Match{}, false
	}

	total := len(p.Keywords)
	confidence := ConfidenceLow
	switch {
	case len(matched) >= min(3, total):
		confidence = ConfidenceHigh
	case len(matched) >= 2:
		confidence = ConfidenceMedium
	}
	return Match{
		Pattern:         p,
		Confidence:      confidence,
		MatchedKeywords: matched,
		score:           float64(len(matched)) / float64(total),
	}, true
}

// Decode returns the best matching pattern. Candidates are ranked by the
// fraction of their keywords found, then high confidence first; remaining
// ties keep catalog order.
func Decode(message string, patterns []catalog.Pattern) (*Match, bool) {
	var matches []Match
	for _, p := range patterns {
		if m, ok := MatchPattern(message, p); ok {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].Confidence == ConfidenceHigh && matches[j].Confidence != ConfidenceHigh
	})
	best := matches[0]
	return &best, true
}
