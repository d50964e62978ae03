package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// reportTop caps each gap list in the insights report.
const reportTop = 10

// RenderReport writes the Markdown insights report for a snapshot and its
// gaps. A nil stats or gaps renders as "N/A" or "No gaps detected yet.".
func RenderReport(stats *Snapshot, gaps *Gaps, source string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Usage Insights Report\n\nGenerated: %s\nData source: %s\n\n", now.Format("2006-01-02 15:04:05"), source)

	total := func(n int) string {
		if stats == nil {
			return "N/A"
		}
		return fmt.Sprint(n)
	}
	var s Snapshot
	if stats != nil {
		s = *stats
	}
	b.WriteString("## Summary\n\n")
	b.WriteString("| Tool | Total Uses | Key Metric |\n|------|------------|------------|\n")
	fmt.Fprintf(&b, "| Error Decoder | %s | %d unmatched |\n", total(s.ErrorDecoder.Total), s.ErrorDecoder.Unmatched)
	fmt.Fprintf(&b, "| Pricing Calculator | %s | %d models not found |\n", total(s.PricingCalculator.Total), len(s.PricingCalculator.ModelsNotFound))
	fmt.Fprintf(&b, "| Status Page | %s | %d providers checked |\n", total(s.StatusPage.Total), len(s.StatusPage.ByProvider))

	b.WriteString("\n## Token Usage Distribution (Pricing Calculator)\n\n")
	tb := s.PricingCalculator.TokenBuckets
	for _, bucket := range []struct {
		name  string
		count int
	}{
		{"under_1k", tb.Under1K},
		{"1k_to_10k", tb.From1KTo10K},
		{"10k_to_100k", tb.From10KTo100K},
		{"over_100k", tb.Over100K},
	} {
		fmt.Fprintf(&b, "- **%s**: %d calculations\n", bucket.name, bucket.count)
	}

	var g Gaps
	if gaps != nil {
		g = *gaps
	}
	b.WriteString("\n## Actionable Gaps\n\n### Error Patterns to Add\n\n")
	b.WriteString("These errors were searched but didn't match any pattern. Add them to `data/error_patterns.json`:\n\n")
	if len(g.ErrorPatternsToAdd) == 0 {
		b.WriteString("No gaps detected yet.\n")
	}
	for _, gap := range g.ErrorPatternsToAdd[:min(reportTop, len(g.ErrorPatternsToAdd))] {
		fmt.Fprintf(&b, "- **%dx**: `%s`\n", gap.Count, gap.Preview)
	}

	b.WriteString("\n### Pricing Models to Add\n\n")
	b.WriteString("These models were searched but not found. Add them to `data/pricing_data.json`:\n\n")
	if len(g.PricingModelsToAdd) == 0 {
		b.WriteString("No gaps detected yet.\n")
	}
	for _, m := range g.PricingModelsToAdd[:min(reportTop, len(g.PricingModelsToAdd))] {
		fmt.Fprintf(&b, "- **%dx**: %s\n", m.Searches, m.SearchTerm)
	}

	b.WriteString("\n## Provider Popularity (Status Page)\n\n")
	if len(s.StatusPage.ByProvider) == 0 {
		b.WriteString("No data yet.\n")
	}
	for _, p := range rankProviders(s.StatusPage.ByProvider) {
		fmt.Fprintf(&b, "- **%s**: %d checks\n", p, s.StatusPage.ByProvider[p])
	}

	b.WriteString("\n---\n*Report generated from in-memory stats. Stats reset on deploy.*\n")
	b.WriteString("*For historical data, run: `buzz analytics pull-ga4`*\n")
	return b.String()
}

func rankProviders(counts map[string]int) []string {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
