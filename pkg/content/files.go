package content

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover lists the content files under dir. HTML files win over Markdown
// files of the same name, and names starting with "_" are templates and
// skipped. Results are ordered by file stem.
func Discover(dir string) ([]string, error) {
	pattern := filepath.ToSlash(filepath.Join(dir, "**", "*.{html,md}"))
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	byStem := map[string]string{}
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "_") {
			continue
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if prev, ok := byStem[stem]; ok && filepath.Ext(prev) == ".html" {
			continue
		}
		byStem[stem] = m
	}

	stems := make([]string, 0, len(byStem))
	for s := range byStem {
		stems = append(stems, s)
	}
	sort.Strings(stems)
	files := make([]string, 0, len(stems))
	for _, s := range stems {
		files = append(files, byStem[s])
	}
	return files, nil
}

// HTMLBody returns the body of doc as HTML, rendering it first when path
// is a Markdown file.
func HTMLBody(path string, doc *Document) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return MarkdownToHTML(doc.Body)
	}
	return doc.Body, nil
}
