package content

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/aymanbagabas/go-udiff"
	"github.com/k3a/html2text"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// demoteHeadings shifts every heading one level down so an "# H1" in a
// source file never competes with the page title.
type demoteHeadings struct{}

func (demoteHeadings) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering && h.Level < 6 {
			h.Level++
		}
		return ast.WalkContinue, nil
	})
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(demoteHeadings{}, 100)),
	),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// MarkdownToHTML renders GitHub flavored Markdown with headings demoted by
// one level. Raw HTML blocks such as widget embeds pass through.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// HTMLToMarkdown converts a WordPress body back to Markdown.
func HTMLToMarkdown(body string) (string, error) {
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(md), nil
}

var (
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	blankRe   = regexp.MustCompile(`\n{3,}`)
)

// PlainText renders HTML for terminal previews. Script tags show as
// [WIDGET] and WordPress block comments are dropped.
func PlainText(body string) string {
	s := commentRe.ReplaceAllString(body, "")
	s = scriptRe.ReplaceAllString(s, "<p>[WIDGET]</p>")
	s = html2text.HTML2Text(s)
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Preview is PlainText cut to n characters, with "..." when cut.
func Preview(body string, n int) string {
	s := PlainText(body)
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

// DiffOp marks a diff line.
type DiffOp byte

const (
	DiffEqual  DiffOp = ' '
	DiffDelete DiffOp = '-'
	DiffInsert DiffOp = '+'
)

// DiffLine is one line of a hunk, without its newline.
type DiffLine struct {
	Op   DiffOp
	Text string
}

// Hunk is a contiguous changed region with three lines of context.
type Hunk struct {
	FromLine int
	ToLine   int
	Lines    []DiffLine
}

// Diff compares two texts line by line. Identical texts yield no hunks.
func Diff(from, to string) ([]Hunk, error) {
	from, to = withNewline(from), withNewline(to)
	edits := udiff.Strings(from, to)
	unified, err := udiff.ToUnifiedDiff("local", "remote", from, edits, 3)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	hunks := make([]Hunk, 0, len(unified.Hunks))
	for _, h := range unified.Hunks {
		out := Hunk{FromLine: h.FromLine, ToLine: h.ToLine}
		for _, l := range h.Lines {
			op := DiffEqual
			switch l.Kind {
			case udiff.Delete:
				op = DiffDelete
			case udiff.Insert:
				op = DiffInsert
			}
			out.Lines = append(out.Lines, DiffLine{Op: op, Text: strings.TrimSuffix(l.Content, "\n")})
		}
		hunks = append(hunks, out)
	}
	return hunks, nil
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
