// Package widgets holds the self-contained HTML widgets and the loader
// script that embeds them into WordPress pages.
package widgets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"text/template"
)

//go:embed html/*.html embed.js.tmpl
var files embed.FS

// ErrNotFound is returned for an unknown widget.
var ErrNotFound = errors.New("widget not found")

// Widget ties a loader tool name to its route and HTML file.
type Widget struct {
	Tool     string
	Path     string
	File     string
	Selector string
}

// All lists the embeddable widgets.
var All = []Widget{
	{Tool: "pricing", Path: "/pricing/widget", File: "pricing_calculator_widget.html", Selector: "#pricing-calculator-widget"},
	{Tool: "status", Path: "/status/widget", File: "status_page_widget.html", Selector: "#status-page-widget"},
	{Tool: "error-decoder", Path: "/error-decoder/widget", File: "error_decoder_widget.html", Selector: "#error-decoder-widget"},
	{Tool: "tools-landing", Path: "/tools/widget", File: "tools_landing_widget.html", Selector: "#tools-landing-widget"},
}

// Lookup finds a widget by its loader tool name.
func Lookup(tool string) (Widget, bool) {
	for _, w := range All {
		if w.Tool == tool {
			return w, true
		}
	}
	return Widget{}, false
}

// HTML returns the markup of a widget file.
func HTML(file string) ([]byte, error) {
	data, err := files.ReadFile("html/" + file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", file, ErrNotFound)
	}
	return data, err
}

var loader = template.Must(template.New("embed.js.tmpl").Delims("[[", "]]").ParseFS(files, "embed.js.tmpl"))

type loaderData struct {
	APIBase   string
	Endpoints string
}

// EmbedScript renders the loader script pointed at apiBase.
func EmbedScript(apiBase string) ([]byte, error) {
	var entries []string
	for _, w := range All {
		entries = append(entries, fmt.Sprintf("    '%s': '%s'", w.Tool, w.Path))
	}
	sort.Strings(entries)

	var buf bytes.Buffer
	err := loader.Execute(&buf, loaderData{
		APIBase:   template.JSEscapeString(strings.TrimRight(apiBase, "/")),
		Endpoints: strings.Join(entries, ",\n"),
	})
	if err != nil {
		return nil, fmt.Errorf("render embed script: %w", err)
	}
	return buf.Bytes(), nil
}
