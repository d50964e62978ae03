// Package litellm syncs the pricing catalog from the public LiteLLM model
// price list.
package litellm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/pricing"
)

// FeedURL is the LiteLLM price list.
const FeedURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

const (
	defaultContextWindow = 128000
	updateFrequency      = "weekly"
	metadataNotes        = "Prices in USD per 1 million tokens. Auto-synced from LiteLLM with manual verification."
)

// ErrNoModels is returned when the feed holds none of the mapped models.
var ErrNoModels = errors.New("no matching models found in LiteLLM data")

// Feed is the raw price list in document order. Entries are decoded
// lazily since the feed mixes schemas.
type Feed = orderedmap.OrderedMap[string, json.RawMessage]

type feedEntry struct {
	InputCostPerToken  float64 `json:"input_cost_per_token"`
	OutputCostPerToken float64 `json:"output_cost_per_token"`
	MaxInputTokens     float64 `json:"max_input_tokens"`
	MaxTokens          float64 `json:"max_tokens"`
}

// ParseFeed decodes a price list.
func ParseFeed(data []byte) (*Feed, error) {
	feed := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, feed); err != nil {
		return nil, fmt.Errorf("parse litellm feed: %w", err)
	}
	return feed, nil
}

// Fetch downloads and decodes the price list at url.
func Fetch(ctx context.Context, client *http.Client, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch litellm feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch litellm feed: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read litellm feed: %w", err)
	}
	return ParseFeed(data)
}

// ProviderFor infers the catalog provider of a feed key.
func ProviderFor(key string) (ProviderInfo, bool) {
	for _, p := range Providers {
		prefixes := p.Prefixes
		if len(prefixes) == 0 {
			prefixes = []string{p.ID + "/"}
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				return p, true
			}
		}
	}
	for _, prefix := range []string{"gpt-", "o1", "o3", "davinci", "text-"} {
		if strings.HasPrefix(key, prefix) {
			return providerByID("openai"), true
		}
	}
	if strings.HasPrefix(key, "claude") {
		return providerByID("anthropic"), true
	}
	return ProviderInfo{}, false
}

func providerByID(id string) ProviderInfo {
	for _, p := range Providers {
		if p.ID == id {
			return p
		}
	}
	return ProviderInfo{ID: id, Name: id}
}

// Transform keeps the mapped models of the feed, converted to per-1M
// prices and grouped by provider in feed order.
func Transform(feed *Feed, logger *slog.Logger) *orderedmap.OrderedMap[string, catalog.Provider] {
	providers := orderedmap.New[string, catalog.Provider]()
	seen := map[string]bool{}

	for pair := feed.Oldest(); pair != nil; pair = pair.Next() {
		mapped, ok := Models[pair.Key]
		if !ok || seen[mapped.ID] {
			continue
		}
		info, ok := ProviderFor(pair.Key)
		if !ok {
			logger.Debug("skipping feed model with unknown provider", "key", pair.Key)
			continue
		}
		var entry feedEntry
		if err := json.Unmarshal(pair.Value, &entry); err != nil {
			logger.Warn("skipping malformed feed model", "key", pair.Key, "error", err)
			continue
		}

		window := int(entry.MaxInputTokens)
		if window <= 0 {
			window = int(entry.MaxTokens)
		}
		if window <= 0 {
			window = defaultContextWindow
		}

		prov, ok := providers.Get(info.ID)
		if !ok {
			prov = catalog.Provider{Name: info.Name, Website: info.Website, Models: orderedmap.New[string, catalog.Model]()}
			providers.Set(info.ID, prov)
		}
		prov.Models.Set(mapped.ID, catalog.Model{
			Name:          mapped.Name,
			InputPer1M:    pricing.Round(entry.InputCostPerToken*1_000_000, 4),
			OutputPer1M:   pricing.Round(entry.OutputCostPerToken*1_000_000, 4),
			ContextWindow: window,
			Notes:         mapped.Notes,
		})
		seen[mapped.ID] = true
		logger.Debug("mapped feed model", "provider", info.ID, "model", mapped.ID)
	}
	return providers
}

// Sources lists the pricing page of every known provider.
func Sources() map[string]string {
	out := make(map[string]string, len(Providers))
	for _, p := range Providers {
		out[p.ID] = p.Source
	}
	return out
}

// Merge builds the next catalog. Providers are sorted by id; feed models
// replace current ones, while models and providers missing from the feed
// are kept.
func Merge(current *catalog.Pricing, fresh *orderedmap.OrderedMap[string, catalog.Provider], today time.Time) *catalog.Pricing {
	merged := catalog.NewPricing()
	merged.Metadata = catalog.Metadata{
		LastUpdated:     today.Format(time.DateOnly),
		UpdateFrequency: updateFrequency,
		Notes:           metadataNotes,
		Sources:         Sources(),
	}

	ids := map[string]bool{}
	for pair := current.Providers.Oldest(); pair != nil; pair = pair.Next() {
		ids[pair.Key] = true
	}
	for pair := fresh.Oldest(); pair != nil; pair = pair.Next() {
		ids[pair.Key] = true
	}

	for _, id := range sortedKeys(ids) {
		cur, inCurrent := current.Providers.Get(id)
		next, inFresh := fresh.Get(id)
		switch {
		case inFresh:
			models := orderedmap.New[string, catalog.Model]()
			for m := next.Models.Oldest(); m != nil; m = m.Next() {
				models.Set(m.Key, m.Value)
			}
			if inCurrent && cur.Models != nil {
				for m := cur.Models.Oldest(); m != nil; m = m.Next() {
					if _, ok := models.Get(m.Key); !ok {
						models.Set(m.Key, m.Value)
					}
				}
			}
			next.Models = models
			merged.Providers.Set(id, next)
		case inCurrent:
			merged.Providers.Set(id, cur)
		}
	}
	return merged
}

// Changes describes how next differs from current, one line per change.
func Changes(current, next *catalog.Pricing) []string {
	var changes []string
	ids := map[string]bool{}
	for pair := current.Providers.Oldest(); pair != nil; pair = pair.Next() {
		ids[pair.Key] = true
	}
	for pair := next.Providers.Oldest(); pair != nil; pair = pair.Next() {
		ids[pair.Key] = true
	}

	for _, id := range sortedKeys(ids) {
		cur, inCurrent := current.Providers.Get(id)
		nxt, inNext := next.Providers.Get(id)
		if !inCurrent {
			changes = append(changes, "+ Added provider: "+id)
			continue
		}
		if !inNext {
			changes = append(changes, "- Removed provider: "+id)
			continue
		}

		models := map[string]bool{}
		for _, p := range []catalog.Provider{cur, nxt} {
			if p.Models == nil {
				continue
			}
			for m := p.Models.Oldest(); m != nil; m = m.Next() {
				models[m.Key] = true
			}
		}
		for _, mid := range sortedKeys(models) {
			old, hadOld := getModel(cur, mid)
			neu, hasNew := getModel(nxt, mid)
			switch {
			case !hadOld:
				changes = append(changes, fmt.Sprintf("+ %s/%s: NEW ($%s/%s)", id, mid, pyFloat(neu.InputPer1M), pyFloat(neu.OutputPer1M)))
			case !hasNew:
				changes = append(changes, fmt.Sprintf("- %s/%s: REMOVED", id, mid))
			case old.InputPer1M != neu.InputPer1M || old.OutputPer1M != neu.OutputPer1M:
				changes = append(changes, fmt.Sprintf("~ %s/%s: $%s/%s -> $%s/%s", id, mid,
					pyFloat(old.InputPer1M), pyFloat(old.OutputPer1M), pyFloat(neu.InputPer1M), pyFloat(neu.OutputPer1M)))
			}
		}
	}
	return changes
}

func getModel(p catalog.Provider, id string) (catalog.Model, bool) {
	if p.Models == nil {
		return catalog.Model{}, false
	}
	return p.Models.Get(id)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pyFloat prints a price the way the catalog notes show them: shortest
// form, with ".0" kept on whole numbers.
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
