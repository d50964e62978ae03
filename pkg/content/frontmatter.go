// Package content handles the page and guide files synced with WordPress:
// YAML frontmatter followed by an HTML or Markdown body.
package content

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Meta is the frontmatter of a content file.
type Meta struct {
	Title          string `yaml:"title"`
	Slug           string `yaml:"slug"`
	Status         string `yaml:"status"`
	PageID         int    `yaml:"page_id,omitempty"`
	SEOTitle       string `yaml:"seo_title"`
	SEODescription string `yaml:"seo_description"`
	WidgetEndpoint string `yaml:"widget_endpoint"`
	Category       string `yaml:"category,omitempty"`
}

// Document is a parsed content file.
type Document struct {
	Meta Meta
	Body string
	// HasMeta is false when the file has no frontmatter block.
	HasMeta bool
}

// Parse splits a file into frontmatter and body. Text without a leading
// "---" block is returned as body only.
func Parse(data []byte) (*Document, error) {
	text := string(data)
	if !strings.HasPrefix(text, delimiter) {
		return &Document{Body: text}, nil
	}
	parts := strings.SplitN(text, delimiter, 3)
	if len(parts) < 3 {
		return &Document{Body: text}, nil
	}

	doc := &Document{Body: strings.TrimSpace(parts[2]), HasMeta: true}
	if err := yaml.Unmarshal([]byte(strings.TrimSpace(parts[1])), &doc.Meta); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return doc, nil
}

// ReadFile parses the content file at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Format renders the document as frontmatter, a blank line and the body.
func (d *Document) Format() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.Meta); err != nil {
		return nil, fmt.Errorf("format frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("format frontmatter: %w", err)
	}
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(strings.TrimSpace(d.Body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// WriteFile atomically replaces path with the formatted document.
func (d *Document) WriteFile(path string) error {
	data, err := d.Format()
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WidgetEndpoint guesses the widget route of a tool page from its slug:
// "ai-pricing-calculator" maps to "/pricing/widget".
func WidgetEndpoint(slug string) string {
	name := strings.TrimPrefix(slug, "ai-")
	first, _, _ := strings.Cut(name, "-")
	if first == "" {
		return ""
	}
	return "/" + first + "/widget"
}
