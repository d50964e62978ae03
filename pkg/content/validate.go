package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Template limits.
const (
	MaxSEOTitle       = 60
	MaxSEODescription = 155
	SlugPrefix        = "ai-"
)

// RequiredSections must appear somewhere in a tool page body.
var RequiredSections = []string{"how to use", "faq", "related tools"}

// Validate checks a tool page against the publishing template and returns
// every problem found. An empty result means the page is valid.
func Validate(doc *Document) []string {
	var problems []string
	m := doc.Meta

	required := []struct{ name, value string }{
		{"title", m.Title},
		{"slug", m.Slug},
		{"status", m.Status},
		{"seo_title", m.SEOTitle},
		{"seo_description", m.SEODescription},
		{"widget_endpoint", m.WidgetEndpoint},
	}
	for _, f := range required {
		if f.value == "" {
			problems = append(problems, "Missing required field: "+f.name)
		}
	}

	if m.Slug != "" && !strings.HasPrefix(m.Slug, SlugPrefix) {
		problems = append(problems, fmt.Sprintf("Slug should start with '%s': %s", SlugPrefix, m.Slug))
	}
	if n := utf8.RuneCountInString(m.SEOTitle); n > MaxSEOTitle {
		problems = append(problems, fmt.Sprintf("SEO title too long (%d chars, max %d): %s...", n, MaxSEOTitle, head(m.SEOTitle, 70)))
	}
	if n := utf8.RuneCountInString(m.SEODescription); n > MaxSEODescription {
		problems = append(problems, fmt.Sprintf("SEO description too long (%d chars, max %d): %s...", n, MaxSEODescription, head(m.SEODescription, 165)))
	}
	if m.Status != "draft" && m.Status != "publish" {
		problems = append(problems, fmt.Sprintf("Invalid status: %s (must be 'draft' or 'publish')", m.Status))
	}

	body := strings.ToLower(doc.Body)
	for _, section := range RequiredSections {
		if !strings.Contains(body, section) {
			problems = append(problems, fmt.Sprintf("Missing required section: '%s'", section))
		}
	}
	if strings.Contains(body, "faq") && !strings.Contains(body, "is this tool free") {
		problems = append(problems, "FAQ section should include 'Is this tool free?' question")
	}
	return problems
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
