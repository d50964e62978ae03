// Package analytics keeps process-local usage counters for the tools.
// Counters reset on restart; raw decoder input is never stored, only a
// truncated hash and a short preview.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	hashLength     = 12
	previewLength  = 50
	DefaultGapsTop = 20
)

// Gap is an unmatched decoder input, keyed by its hash.
type Gap struct {
	Count     int    `json:"count"`
	Preview   string `json:"preview"`
	FirstSeen string `json:"first_seen"`
}

// DecoderStats counts decode attempts. Total always equals Matched + Unmatched.
type DecoderStats struct {
	Total     int            `json:"total"`
	Matched   int            `json:"matched"`
	Unmatched int            `json:"unmatched"`
	Gaps      map[string]Gap `json:"gaps"`
}

// TokenBuckets partitions calculations by input+output token volume.
type TokenBuckets struct {
	Under1K       int `json:"under_1k"`
	From1KTo10K   int `json:"1k_to_10k"`
	From10KTo100K int `json:"10k_to_100k"`
	Over100K      int `json:"over_100k"`
}

// PricingStats counts calculator use.
type PricingStats struct {
	Total          int            `json:"total"`
	TokenBuckets   TokenBuckets   `json:"token_buckets"`
	ModelsNotFound map[string]int `json:"models_not_found"`
}

// StatusStats counts status checks per provider.
type StatusStats struct {
	Total      int            `json:"total"`
	ByProvider map[string]int `json:"by_provider"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	StartedAt         string       `json:"started_at"`
	ErrorDecoder      DecoderStats `json:"error_decoder"`
	PricingCalculator PricingStats `json:"pricing_calculator"`
	StatusPage        StatusStats  `json:"status_page"`
}

// GapItem is one entry of the error pattern gap listing.
type GapItem struct {
	Hash      string `json:"hash"`
	Count     int    `json:"count"`
	Preview   string `json:"preview"`
	FirstSeen string `json:"first_seen"`
}

// ModelNotFound is one entry of the missing pricing model listing.
type ModelNotFound struct {
	SearchTerm string `json:"search_term"`
	Searches   int    `json:"searches"`
}

// Gaps lists the most frequent catalog gaps.
type Gaps struct {
	ErrorPatternsToAdd []GapItem       `json:"error_patterns_to_add"`
	PricingModelsToAdd []ModelNotFound `json:"pricing_models_to_add"`
}

// Counters is the usage state owned by the HTTP server. It is safe for
// concurrent use.
type Counters struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
	state  Snapshot
}

// NewCounters returns zeroed counters.
func NewCounters(logger *slog.Logger) *Counters {
	c := &Counters{now: time.Now, logger: logger}
	c.state = c.fresh()
	return c
}

// WithClock replaces the clock used for timestamps and restarts the counters.
func (c *Counters) WithClock(now func() time.Time) *Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	c.state = c.fresh()
	return c
}

func (c *Counters) fresh() Snapshot {
	return Snapshot{
		StartedAt:         timestamp(c.now()),
		ErrorDecoder:      DecoderStats{Gaps: map[string]Gap{}},
		PricingCalculator: PricingStats{ModelsNotFound: map[string]int{}},
		StatusPage:        StatusStats{ByProvider: map[string]int{}},
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// GapHash returns the first 12 hex characters of the SHA-256 of message.
func GapHash(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// Preview returns the first 50 characters of message, with "..." appended
// when it was cut.
func Preview(message string) string {
	if utf8.RuneCountInString(message) <= previewLength {
		return message
	}
	return string([]rune(message)[:previewLength]) + "..."
}

// RecordDecode counts a decode attempt. Unmatched messages are recorded as
// gaps under their hash.
func (c *Counters) RecordDecode(message string, matched bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := &c.state.ErrorDecoder
	d.Total++
	if matched {
		d.Matched++
		return
	}
	d.Unmatched++

	hash := GapHash(message)
	gap, ok := d.Gaps[hash]
	if !ok {
		gap = Gap{Preview: Preview(message), FirstSeen: timestamp(c.now())}
	}
	gap.Count++
	d.Gaps[hash] = gap
	c.logger.Info("gap detected", "hash", hash, "count", gap.Count)
}

// RecordCalculation counts a pricing calculation and buckets its volume.
func (c *Counters) RecordCalculation(inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &c.state.PricingCalculator
	p.Total++
	switch total := inputTokens + outputTokens; {
	case total < 1_000:
		p.TokenBuckets.Under1K++
	case total < 10_000:
		p.TokenBuckets.From1KTo10K++
	case total < 100_000:
		p.TokenBuckets.From10KTo100K++
	default:
		p.TokenBuckets.Over100K++
	}
}

// RecordModelNotFound counts a search for a model missing from the catalog.
// Terms are lower-cased and trimmed; empty terms are ignored.
func (c *Counters) RecordModelNotFound(term string) {
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.PricingCalculator.ModelsNotFound[normalized]++
	c.logger.Info("model not found", "term", normalized)
}

// RecordStatusCheck counts a status check of one provider.
func (c *Counters) RecordStatusCheck(providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.StatusPage.Total++
	c.state.StatusPage.ByProvider[providerID]++
}

// Snapshot returns a deep copy of the counters.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

func (c *Counters) copyState() Snapshot {
	s := c.state
	s.ErrorDecoder.Gaps = maps.Clone(c.state.ErrorDecoder.Gaps)
	s.PricingCalculator.ModelsNotFound = maps.Clone(c.state.PricingCalculator.ModelsNotFound)
	s.StatusPage.ByProvider = maps.Clone(c.state.StatusPage.ByProvider)
	return s
}

// Reset zeroes all counters and returns what they held before.
func (c *Counters) Reset() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.copyState()
	c.state = c.fresh()
	c.logger.Info("analytics reset", "decodes", prev.ErrorDecoder.Total, "calculations", prev.PricingCalculator.Total)
	return prev
}

// Gaps returns up to limit entries of each gap list, most frequent first.
func (c *Counters) Gaps(limit int) Gaps {
	return TopGaps(c.Snapshot(), limit)
}

// TopGaps ranks the gaps of a snapshot. Equal counts are ordered by first
// sighting, then hash, and missing models alphabetically.
func TopGaps(s Snapshot, limit int) Gaps {
	errs := make([]GapItem, 0, len(s.ErrorDecoder.Gaps))
	for hash, g := range s.ErrorDecoder.Gaps {
		errs = append(errs, GapItem{Hash: hash, Count: g.Count, Preview: g.Preview, FirstSeen: g.FirstSeen})
	}
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Count != errs[j].Count {
			return errs[i].Count > errs[j].Count
		}
		if errs[i].FirstSeen != errs[j].FirstSeen {
			return errs[i].FirstSeen < errs[j].FirstSeen
		}
		return errs[i].Hash < errs[j].Hash
	})

	models := make([]ModelNotFound, 0, len(s.PricingCalculator.ModelsNotFound))
	for term, n := range s.PricingCalculator.ModelsNotFound {
		models = append(models, ModelNotFound{SearchTerm: term, Searches: n})
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Searches != models[j].Searches {
			return models[i].Searches > models[j].Searches
		}
		return models[i].SearchTerm < models[j].SearchTerm
	})

	if limit > 0 {
		errs = errs[:min(limit, len(errs))]
		models = models[:min(limit, len(models))]
	}
	return Gaps{ErrorPatternsToAdd: errs, PricingModelsToAdd: models}
}
