package publish_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/ai-buzz-tools/internal/publish"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/content"
	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

type object struct {
	ID         int            `json:"id"`
	Slug       string         `json:"slug"`
	Status     string         `json:"status"`
	Title      wordpress.Text `json:"title"`
	Content    wordpress.Text `json:"content"`
	Categories []int          `json:"categories"`
}

// fakeSite is an in-memory WordPress REST API.
type fakeSite struct {
	mu         sync.Mutex
	nextID     int
	pages      map[int]*object
	posts      map[int]*object
	categories map[int]*wordpress.Category
	seo        map[int]map[string]any
	deleted    []int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		nextID:     100,
		pages:      map[int]*object{},
		posts:      map[int]*object{},
		categories: map[int]*wordpress.Category{},
		seo:        map[int]map[string]any{},
	}
}

func (s *fakeSite) id() int {
	s.nextID++
	return s.nextID
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-WP-TotalPages", "1")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *fakeSite) objects(w http.ResponseWriter, r *http.Request, store map[int]*object) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idStr := r.PathValue("id")
	switch {
	case r.Method == http.MethodGet && idStr == "":
		slug := r.URL.Query().Get("slug")
		out := []object{}
		for _, o := range store {
			if slug == "" || o.Slug == slug {
				out = append(out, *o)
			}
		}
		writeJSON(w, out)
	case r.Method == http.MethodGet:
		id, _ := strconv.Atoi(idStr)
		o, ok := store[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, o)
	case r.Method == http.MethodPost:
		var in wordpress.PostInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var o *object
		if idStr == "" {
			o = &object{ID: s.id()}
			store[o.ID] = o
		} else {
			id, _ := strconv.Atoi(idStr)
			o = store[id]
			if o == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		}
		if in.Slug != "" {
			o.Slug = in.Slug
		}
		if in.Status != "" {
			o.Status = in.Status
		}
		if in.Title != "" {
			o.Title = wordpress.Text{Rendered: in.Title, Raw: in.Title}
		}
		if in.Content != "" {
			o.Content = wordpress.Text{Rendered: in.Content, Raw: in.Content}
		}
		if in.Categories != nil {
			o.Categories = in.Categories
		}
		writeJSON(w, o)
	}
}

func (s *fakeSite) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		out := []wordpress.Category{}
		for _, c := range s.categories {
			switch {
			case q.Has("slug") && c.Slug != q.Get("slug"):
			case q.Has("search") && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Get("search"))):
			default:
				out = append(out, *c)
			}
		}
		writeJSON(w, out)
	case http.MethodPost:
		var in struct {
			Name        string `json:"name"`
			Slug        string `json:"slug"`
			Description string `json:"description"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		c := &wordpress.Category{ID: s.id(), Name: in.Name, Slug: in.Slug, Description: in.Description}
		if c.Slug == "" {
			c.Slug = strings.ReplaceAll(strings.ToLower(in.Name), " ", "-")
		}
		s.categories[c.ID] = c
		writeJSON(w, c)
	}
}

func (s *fakeSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/pages", func(w http.ResponseWriter, r *http.Request) { s.objects(w, r, s.pages) })
	mux.HandleFunc("/wp-json/wp/v2/pages/{id}", func(w http.ResponseWriter, r *http.Request) { s.objects(w, r, s.pages) })
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) { s.objects(w, r, s.posts) })
	mux.HandleFunc("/wp-json/wp/v2/posts/{id}", func(w http.ResponseWriter, r *http.Request) { s.objects(w, r, s.posts) })
	mux.HandleFunc("/wp-json/wp/v2/categories", s.handleCategories)
	mux.HandleFunc("DELETE /wp-json/wp/v2/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		delete(s.categories, id)
		s.deleted = append(s.deleted, id)
		writeJSON(w, map[string]any{"deleted": true})
	})
	mux.HandleFunc("POST /wp-json/aioseo/v1/post/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.seo[id] = body
		writeJSON(w, map[string]any{"success": true})
	})
	return mux
}

func setup(t *testing.T) (*publish.Publisher, *fakeSite) {
	t.Helper()
	site := newFakeSite()
	srv := httptest.NewServer(site.handler())
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wp := wordpress.NewClient(wordpress.Config{SiteURL: srv.URL, Username: "editor", AppPassword: "secret"}, srv.Client(), logger).
		WithBackoff(func(int) time.Duration { return 0 })
	return publish.New(wp, logger), site
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

const pageFile = `---
title: AI Pricing Calculator
slug: ai-pricing-calculator
status: draft
seo_title: Compare AI API costs
seo_description: Free calculator.
widget_endpoint: /pricing/widget
---

<p>Compare prices.</p>
`

func TestPushPage_CreatesThenUpdates(t *testing.T) {
	p, site := setup(t)
	path := writeFile(t, t.TempDir(), "ai-pricing-calculator.html", pageFile)

	res, err := p.PushPage(t.Context(), path)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Created", res.Action())
	assert.Equal(t, publish.KindPage, res.Kind)
	assert.True(t, res.SEOUpdated)
	assert.Equal(t, "Compare AI API costs", site.seo[res.ID]["title"])
	assert.Equal(t, "<p>Compare prices.</p>", site.pages[res.ID].Content.Raw)

	again, err := p.PushPage(t.Context(), path)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.ID, again.ID)
	assert.Len(t, site.pages, 1)
}

func TestPushPage_RendersMarkdown(t *testing.T) {
	p, site := setup(t)
	md := strings.Replace(pageFile, "<p>Compare prices.</p>", "# Calculator\n\nCompare **prices**.", 1)
	path := writeFile(t, t.TempDir(), "ai-pricing-calculator.md", md)

	res, err := p.PushPage(t.Context(), path)
	require.NoError(t, err)
	body := site.pages[res.ID].Content.Raw
	assert.Contains(t, body, "<h2")
	assert.Contains(t, body, "<strong>prices</strong>")
}

func TestPushPage_RequiresSlug(t *testing.T) {
	p, site := setup(t)
	path := writeFile(t, t.TempDir(), "x.html", "---\ntitle: No slug\n---\n\n<p>x</p>\n")

	_, err := p.PushPage(t.Context(), path)
	assert.ErrorIs(t, err, publish.ErrNoSlug)
	assert.Empty(t, site.pages)
}

func TestPushAll_ContinuesPastFailures(t *testing.T) {
	p, site := setup(t)
	dir := t.TempDir()
	writeFile(t, dir, "ai-pricing-calculator.html", pageFile)
	writeFile(t, dir, "ai-status.html", strings.ReplaceAll(pageFile, "ai-pricing-calculator", "ai-status"))
	writeFile(t, dir, "broken.html", "---\ntitle: Broken\n---\n\nbody\n")
	writeFile(t, dir, "_template.html", pageFile)

	done, failed, err := p.PushAll(t.Context(), dir)
	require.NoError(t, err)
	assert.Len(t, done, 2)
	require.Len(t, failed, 1)
	assert.True(t, failed[0].Skipped)
	assert.Len(t, site.pages, 2)
}

func TestPushGuides_FilesPostsUnderCategory(t *testing.T) {
	p, site := setup(t)
	dir := t.TempDir()
	guide := strings.ReplaceAll(pageFile, "ai-pricing-calculator", "ai-openai-429-errors")
	guide = strings.Replace(guide, "widget_endpoint", "category: Troubleshooting\nwidget_endpoint", 1)
	writeFile(t, dir, "ai-openai-429-errors.html", guide)

	done, failed, err := p.PushGuides(t.Context(), dir)
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, done, 1)
	assert.Equal(t, publish.KindPost, done[0].Kind)

	post := site.posts[done[0].ID]
	require.NotNil(t, post)
	assert.Len(t, post.Categories, 2)
	names := map[string]bool{}
	for _, id := range post.Categories {
		names[site.categories[id].Name] = true
	}
	assert.Equal(t, map[string]bool{publish.GuidesCategory: true, "Troubleshooting": true}, names)
}

func TestPushGuides_MissingDir(t *testing.T) {
	p, _ := setup(t)
	_, _, err := p.PushGuides(t.Context(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPull(t *testing.T) {
	p, site := setup(t)
	site.pages[7] = &object{
		ID: 7, Slug: "ai-status-page", Status: "publish",
		Title:   wordpress.Text{Rendered: "AI Status", Raw: "AI Status"},
		Content: wordpress.Text{Rendered: "<h2>Is OpenAI down?</h2><p>Live status.</p>", Raw: "<h2>Is OpenAI down?</h2><p>Live status.</p>"},
	}
	dir := t.TempDir()

	path, doc, err := p.Pull(t.Context(), "ai-status-page", dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai-status-page.html"), path)
	assert.Equal(t, 7, doc.Meta.PageID)
	assert.Equal(t, "/status/widget", doc.Meta.WidgetEndpoint)

	back, err := content.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AI Status", back.Meta.Title)
	assert.Contains(t, back.Body, "<p>Live status.</p>")

	path, doc, err = p.Pull(t.Context(), "ai-status-page", dir, true)
	require.NoError(t, err)
	assert.Equal(t, ".md", filepath.Ext(path))
	assert.Contains(t, doc.Body, "## Is OpenAI down?")
}

func TestPull_NotFound(t *testing.T) {
	p, _ := setup(t)
	_, _, err := p.Pull(t.Context(), "ai-missing", t.TempDir(), false)
	assert.ErrorIs(t, err, wordpress.ErrNotFound)
}

func TestDiff(t *testing.T) {
	p, site := setup(t)
	site.pages[7] = &object{
		ID: 7, Slug: "ai-pricing-calculator", Status: "publish",
		Content: wordpress.Text{Raw: "<p>Compare prices.</p>\n<p>Old footer.</p>"},
	}
	dir := t.TempDir()
	writeFile(t, dir, "ai-pricing-calculator.html", pageFile)

	report, err := p.Diff(t.Context(), "ai-pricing-calculator", filepath.Join(dir, "missing"), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai-pricing-calculator.html"), report.LocalPath)
	assert.Equal(t, 7, report.RemoteID)
	assert.Equal(t, "publish", report.RemoteState)
	assert.Greater(t, report.RemoteLen, report.LocalLen)
	require.Len(t, report.Hunks, 1)

	var inserted []string
	for _, l := range report.Hunks[0].Lines {
		if l.Op == content.DiffInsert {
			inserted = append(inserted, l.Text)
		}
	}
	assert.Equal(t, []string{"<p>Old footer.</p>"}, inserted)
}

func TestDiff_NoLocalFile(t *testing.T) {
	p, _ := setup(t)
	_, err := p.Diff(t.Context(), "ai-pricing-calculator", t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSetupCategory(t *testing.T) {
	p, site := setup(t)
	site.posts[1] = &object{ID: 1, Slug: "ai-openai-429-errors", Categories: []int{9}}
	site.posts[2] = &object{ID: 2, Slug: "ai-openai-rate-limits"}
	site.categories[50] = &wordpress.Category{ID: 50, Name: "Old Empty", Slug: "old-empty"}
	site.categories[51] = &wordpress.Category{ID: 51, Name: "Old Busy", Slug: "old-busy", Count: 3}

	res, err := p.SetupCategory(t.Context(), publish.DeveloperTools, []string{"old-empty", "old-busy", "gone"}, false)
	require.NoError(t, err)
	require.NotZero(t, res.CategoryID)

	outcomes := map[string]string{}
	for _, s := range res.Steps {
		outcomes[s.Target] = s.Outcome
	}
	assert.Equal(t, publish.StepDone, outcomes["AI Developer Tools"])
	assert.Equal(t, publish.StepDone, outcomes["ai-openai-429-errors"])
	assert.Equal(t, publish.StepDone, outcomes["ai-openai-rate-limits"])
	assert.Equal(t, publish.StepMissing, outcomes["ai-openai-vs-anthropic-pricing"])
	assert.Equal(t, publish.StepDone, outcomes["old-empty"])
	assert.Equal(t, publish.StepNotEmpty, outcomes["old-busy"])
	assert.Equal(t, publish.StepMissing, outcomes["gone"])

	assert.Equal(t, []int{res.CategoryID}, site.posts[1].Categories)
	assert.Equal(t, []int{50}, site.deleted)

	again, err := p.SetupCategory(t.Context(), publish.DeveloperTools, nil, false)
	require.NoError(t, err)
	assert.Equal(t, res.CategoryID, again.CategoryID)
	assert.Equal(t, publish.StepExists, again.Steps[0].Outcome)
	assert.Equal(t, publish.StepExists, again.Steps[1].Outcome)
}

func TestSetupCategory_DryRunWritesNothing(t *testing.T) {
	p, site := setup(t)
	site.posts[1] = &object{ID: 1, Slug: "ai-openai-429-errors"}
	site.categories[50] = &wordpress.Category{ID: 50, Name: "Old Empty", Slug: "old-empty"}

	res, err := p.SetupCategory(t.Context(), publish.DeveloperTools, []string{"old-empty"}, true)
	require.NoError(t, err)
	assert.Zero(t, res.CategoryID)
	assert.Equal(t, publish.StepDryRun, res.Steps[0].Outcome)
	assert.Len(t, site.categories, 1)
	assert.Empty(t, site.deleted)
	assert.Empty(t, site.posts[1].Categories)
}
