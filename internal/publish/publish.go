// Package publish syncs local page and guide files with WordPress.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/content"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

// Guides are published as posts in this category.
const (
	GuidesCategory     = "AI Guides"
	GuidesCategorySlug = "ai-guides"
)

// ErrNoSlug is returned for content files without a slug in their frontmatter.
var ErrNoSlug = errors.New("slug is required in frontmatter")

// Kind is the WordPress object type a file is published as.
type Kind string

const (
	KindPage Kind = "page"
	KindPost Kind = "post"
)

// PushResult describes one published file.
type PushResult struct {
	File       string
	Slug       string
	Kind       Kind
	ID         int
	Created    bool
	SEOUpdated bool
}

// Action is "Created" or "Updated".
func (r PushResult) Action() string {
	if r.Created {
		return "Created"
	}
	return "Updated"
}

// Failure is a file that could not be published.
type Failure struct {
	File    string
	Err     error
	Skipped bool
}

// Publisher pushes and pulls content through a WordPress client.
type Publisher struct {
	wp     *wordpress.Client
	logger *slog.Logger
}

// New creates a publisher.
func New(wp *wordpress.Client, logger *slog.Logger) *Publisher {
	return &Publisher{wp: wp, logger: logger}
}

func load(path string) (*content.Document, string, error) {
	doc, err := content.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if doc.Meta.Slug == "" {
		return nil, "", fmt.Errorf("%s: %w", path, ErrNoSlug)
	}
	body, err := content.HTMLBody(path, doc)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return doc, body, nil
}

func (p *Publisher) updateSEO(ctx context.Context, id int, m content.Meta) (bool, error) {
	if m.SEOTitle == "" && m.SEODescription == "" {
		return false, nil
	}
	err := p.wp.UpdateSEO(ctx, id, wordpress.SEOMeta{Title: m.SEOTitle, Description: m.SEODescription})
	return err == nil, err
}

// PushPage creates or updates the page named by the file's slug. Markdown
// bodies are rendered to HTML first.
func (p *Publisher) PushPage(ctx context.Context, path string) (PushResult, error) {
	doc, body, err := load(path)
	if err != nil {
		return PushResult{File: path}, err
	}
	page, created, err := p.wp.UpsertPage(ctx, wordpress.PageInput{
		Title:   doc.Meta.Title,
		Content: body,
		Slug:    doc.Meta.Slug,
		Status:  doc.Meta.Status,
	})
	if err != nil {
		return PushResult{File: path, Slug: doc.Meta.Slug}, err
	}
	res := PushResult{File: path, Slug: doc.Meta.Slug, Kind: KindPage, ID: page.ID, Created: created}
	res.SEOUpdated, err = p.updateSEO(ctx, page.ID, doc.Meta)
	return res, err
}

// PushPost creates or updates a post. The category from the frontmatter is
// created when missing; categoryID, when non-zero, is added as well.
func (p *Publisher) PushPost(ctx context.Context, path string, categoryID int) (PushResult, error) {
	doc, body, err := load(path)
	if err != nil {
		return PushResult{File: path}, err
	}

	var categories []int
	if categoryID > 0 {
		categories = append(categories, categoryID)
	}
	if name := doc.Meta.Category; name != "" {
		id, err := p.wp.EnsureCategory(ctx, name, "", "", 0)
		if err != nil {
			return PushResult{File: path, Slug: doc.Meta.Slug}, err
		}
		if id != categoryID {
			categories = append(categories, id)
		}
	}

	post, created, err := p.wp.UpsertPost(ctx, wordpress.PostInput{
		Title:      doc.Meta.Title,
		Content:    body,
		Slug:       doc.Meta.Slug,
		Status:     doc.Meta.Status,
		Categories: categories,
	})
	if err != nil {
		return PushResult{File: path, Slug: doc.Meta.Slug}, err
	}
	res := PushResult{File: path, Slug: doc.Meta.Slug, Kind: KindPost, ID: post.ID, Created: created}
	res.SEOUpdated, err = p.updateSEO(ctx, post.ID, doc.Meta)
	return res, err
}

// PushAll publishes every content file under dir as a page. A failing file
// does not stop the others.
func (p *Publisher) PushAll(ctx context.Context, dir string) ([]PushResult, []Failure, error) {
	return p.pushDir(ctx, dir, func(path string) (PushResult, error) {
		return p.PushPage(ctx, path)
	})
}

// PushGuides publishes every content file under dir as a post in the
// guides category.
func (p *Publisher) PushGuides(ctx context.Context, dir string) ([]PushResult, []Failure, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, fmt.Errorf("guides directory: %w", err)
	}
	catID, err := p.wp.EnsureCategory(ctx, GuidesCategory, GuidesCategorySlug, "", 0)
	if err != nil {
		return nil, nil, err
	}
	return p.pushDir(ctx, dir, func(path string) (PushResult, error) {
		return p.PushPost(ctx, path, catID)
	})
}

func (p *Publisher) pushDir(ctx context.Context, dir string, push func(string) (PushResult, error)) ([]PushResult, []Failure, error) {
	files, err := content.Discover(dir)
	if err != nil {
		return nil, nil, err
	}
	var (
		done   []PushResult
		failed []Failure
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return done, failed, err
		}
		res, err := push(f)
		if err != nil {
			p.logger.Warn("push failed", "file", f, "error", err)
			failed = append(failed, Failure{File: f, Err: err, Skipped: errors.Is(err, ErrNoSlug)})
			continue
		}
		done = append(done, res)
	}
	return done, failed, nil
}

// Pull downloads the page with slug into dir as <slug>.html, or as
// <slug>.md converted to Markdown. It returns the written path.
func (p *Publisher) Pull(ctx context.Context, slug, dir string, markdown bool) (string, *content.Document, error) {
	found, err := p.wp.PageBySlug(ctx, slug)
	if err != nil {
		return "", nil, err
	}
	page, err := p.wp.Page(ctx, found.ID)
	if err != nil {
		return "", nil, err
	}

	doc := &content.Document{
		Meta: content.Meta{
			Title:          page.Title.Value(),
			Slug:           page.Slug,
			Status:         page.Status,
			PageID:         page.ID,
			WidgetEndpoint: content.WidgetEndpoint(page.Slug),
		},
		Body:    page.Content.Value(),
		HasMeta: true,
	}
	ext := ".html"
	if markdown {
		md, err := content.HTMLToMarkdown(doc.Body)
		if err != nil {
			return "", nil, err
		}
		doc.Body = md
		ext = ".md"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, slug+ext)
	if err := doc.WriteFile(path); err != nil {
		return "", nil, err
	}
	return path, doc, nil
}

// DiffReport compares a local file with the live page.
type DiffReport struct {
	LocalPath   string
	LocalLen    int
	RemoteLen   int
	RemoteID    int
	RemoteState string
	Hunks       []content.Hunk
}

// Diff compares the local copy of slug found in dirs with the page on the
// site. The first directory holding <slug>.html or <slug>.md wins.
func (p *Publisher) Diff(ctx context.Context, slug string, dirs ...string) (*DiffReport, error) {
	local := findLocal(slug, dirs)
	if local == "" {
		return nil, fmt.Errorf("local file for %q: %w", slug, os.ErrNotExist)
	}
	doc, err := content.ReadFile(local)
	if err != nil {
		return nil, err
	}
	body, err := content.HTMLBody(local, doc)
	if err != nil {
		return nil, err
	}

	found, err := p.wp.PageBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	page, err := p.wp.Page(ctx, found.ID)
	if err != nil {
		return nil, err
	}
	remote := strings.TrimSpace(page.Content.Value())

	hunks, err := content.Diff(body, remote)
	if err != nil {
		return nil, err
	}
	return &DiffReport{
		LocalPath:   local,
		LocalLen:    len([]rune(body)),
		RemoteLen:   len([]rune(remote)),
		RemoteID:    page.ID,
		RemoteState: page.Status,
		Hunks:       hunks,
	}, nil
}

func findLocal(slug string, dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range []string{".html", ".md"} {
			path := filepath.Join(dir, slug+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
