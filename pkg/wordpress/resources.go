package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Text is a WordPress text field. Raw is only present with context=edit.
type Text struct {
	Rendered string `json:"rendered"`
	Raw      string `json:"raw,omitempty"`
}

// Value prefers the raw source over the rendered HTML.
func (t Text) Value() string {
	if t.Raw != "" {
		return t.Raw
	}
	return t.Rendered
}

// Page is a WordPress page.
type Page struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Status   string `json:"status"`
	Link     string `json:"link"`
	Modified string `json:"modified"`
	Parent   int    `json:"parent"`
	Template string `json:"template"`
	Title    Text   `json:"title"`
	Content  Text   `json:"content"`
}

// Post is a WordPress post.
type Post struct {
	ID         int    `json:"id"`
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	Link       string `json:"link"`
	Modified   string `json:"modified"`
	Title      Text   `json:"title"`
	Content    Text   `json:"content"`
	Categories []int  `json:"categories"`
}

// Category is a post category.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Parent      int    `json:"parent"`
	Count       int    `json:"count"`
}

// PageInput is the writable subset of a page.
type PageInput struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Status   string `json:"status,omitempty"`
	Parent   int    `json:"parent,omitempty"`
	Template string `json:"template,omitempty"`
}

// PostInput is the writable subset of a post.
type PostInput struct {
	Title      string `json:"title,omitempty"`
	Content    string `json:"content,omitempty"`
	Slug       string `json:"slug,omitempty"`
	Status     string `json:"status,omitempty"`
	Categories []int  `json:"categories,omitempty"`
	Tags       []int  `json:"tags,omitempty"`
}

// SEOMeta is the AIOSEO title and description. Social fields default to
// the plain ones.
type SEOMeta struct {
	Title              string
	Description        string
	OGTitle            string
	OGDescription      string
	TwitterTitle       string
	TwitterDescription string
}

func (c *Client) endpoint(parts ...string) string {
	return c.apiURL + "/" + strings.Join(parts, "/")
}

func withDefaults(title, status, fallbackTitle string) (string, string) {
	if title == "" {
		title = fallbackTitle
	}
	if status == "" {
		status = "draft"
	}
	return title, status
}

// PageBySlug returns the page with slug, or ErrNotFound.
func (c *Client) PageBySlug(ctx context.Context, slug string) (*Page, error) {
	var pages []Page
	q := url.Values{"slug": {slug}, "per_page": {"1"}}
	if _, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint("pages"), query: q}, &pages); err != nil {
		return nil, fmt.Errorf("get page %q: %w", slug, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page %q: %w", slug, ErrNotFound)
	}
	return &pages[0], nil
}

// Page returns a page with its raw fields.
func (c *Client) Page(ctx context.Context, id int) (*Page, error) {
	var page Page
	q := url.Values{"context": {"edit"}}
	if _, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint("pages", strconv.Itoa(id)), query: q}, &page); err != nil {
		return nil, fmt.Errorf("get page %d: %w", id, err)
	}
	return &page, nil
}

// CreatePage creates a page, as a draft unless a status is given.
func (c *Client) CreatePage(ctx context.Context, in PageInput) (*Page, error) {
	if in.Content == "" {
		return nil, ErrMissingContent
	}
	in.Title, in.Status = withDefaults(in.Title, in.Status, "Draft Page")
	var page Page
	if _, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint("pages"), body: in}, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	c.logger.Info("page created", "id", page.ID, "slug", page.Slug)
	return &page, nil
}

// UpdatePage updates the non-empty fields of in.
func (c *Client) UpdatePage(ctx context.Context, id int, in PageInput) (*Page, error) {
	var page Page
	if _, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint("pages", strconv.Itoa(id)), body: in}, &page); err != nil {
		return nil, fmt.Errorf("update page %d: %w", id, err)
	}
	c.logger.Info("page updated", "id", id)
	return &page, nil
}

// ListPages returns every page, newest first.
func (c *Client) ListPages(ctx context.Context) ([]Page, error) {
	q := url.Values{"orderby": {"date"}, "order": {"desc"}}
	pages, err := listAll[Page](ctx, c, c.endpoint("pages"), q)
	if err != nil {
		return pages, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

// UpsertPage updates the page with in.Slug or creates it. The bool is true
// when the page was created.
func (c *Client) UpsertPage(ctx context.Context, in PageInput) (*Page, bool, error) {
	existing, err := c.PageBySlug(ctx, in.Slug)
	switch {
	case errors.Is(err, ErrNotFound):
		page, err := c.CreatePage(ctx, in)
		return page, true, err
	case err != nil:
		return nil, false, err
	}
	page, err := c.UpdatePage(ctx, existing.ID, in)
	return page, false, err
}

// PostBySlug returns the post with slug, or ErrNotFound.
func (c *Client) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	var posts []Post
	q := url.Values{"slug": {slug}, "per_page": {"1"}}
	if _, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint("posts"), query: q}, &posts); err != nil {
		return nil, fmt.Errorf("get post %q: %w", slug, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("post %q: %w", slug, ErrNotFound)
	}
	return &posts[0], nil
}

// CreatePost creates a post, as a draft unless a status is given.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	if in.Content == "" {
		return nil, ErrMissingContent
	}
	in.Title, in.Status = withDefaults(in.Title, in.Status, "Draft Post")
	var post Post
	if _, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint("posts"), body: in}, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	c.logger.Info("post created", "id", post.ID, "slug", post.Slug)
	return &post, nil
}

// UpdatePost updates the non-empty fields of in.
func (c *Client) UpdatePost(ctx context.Context, id int, in PostInput) (*Post, error) {
	var post Post
	if _, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint("posts", strconv.Itoa(id)), body: in}, &post); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	c.logger.Info("post updated", "id", id)
	return &post, nil
}

// UpsertPost updates the post with in.Slug or creates it.
func (c *Client) UpsertPost(ctx context.Context, in PostInput) (*Post, bool, error) {
	existing, err := c.PostBySlug(ctx, in.Slug)
	switch {
	case errors.Is(err, ErrNotFound):
		post, err := c.CreatePost(ctx, in)
		return post, true, err
	case err != nil:
		return nil, false, err
	}
	post, err := c.UpdatePost(ctx, existing.ID, in)
	return post, false, err
}

// EnsureCategory returns the id of the category named name, compared
// case-insensitively, creating it when missing. A zero parent is top level.
func (c *Client) EnsureCategory(ctx context.Context, name, slug, description string, parent int) (int, error) {
	var found []Category
	q := url.Values{"search": {name}, "per_page": {"100"}}
	if _, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint("categories"), query: q}, &found); err != nil {
		return 0, fmt.Errorf("search category %q: %w", name, err)
	}
	for _, cat := range found {
		if strings.EqualFold(cat.Name, name) {
			return cat.ID, nil
		}
	}

	body := map[string]any{"name": name}
	if slug != "" {
		body["slug"] = slug
	}
	if description != "" {
		body["description"] = description
	}
	if parent > 0 {
		body["parent"] = parent
	}
	var created Category
	if _, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint("categories"), body: body}, &created); err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	c.logger.Info("category created", "id", created.ID, "name", name)
	return created.ID, nil
}

// CategoryBySlug returns the category with slug, or ErrNotFound.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var cats []Category
	q := url.Values{"slug": {slug}, "per_page": {"1"}}
	if _, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint("categories"), query: q}, &cats); err != nil {
		return nil, fmt.Errorf("get category %q: %w", slug, err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("category %q: %w", slug, ErrNotFound)
	}
	return &cats[0], nil
}

// ListCategories returns every category ordered by name.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	q := url.Values{"orderby": {"name"}, "order": {"asc"}}
	cats, err := listAll[Category](ctx, c, c.endpoint("categories"), q)
	if err != nil {
		return cats, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// DeleteCategory permanently removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	q := url.Values{"force": {"true"}}
	if _, err := c.do(ctx, request{method: http.MethodDelete, url: c.endpoint("categories", strconv.Itoa(id)), query: q}, nil); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	c.logger.Info("category deleted", "id", id)
	return nil
}

func (m SEOMeta) fields() map[string]any {
	or := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}
	return map[string]any{
		"title":               m.Title,
		"description":         m.Description,
		"og_title":            or(m.OGTitle, m.Title),
		"og_description":      or(m.OGDescription, m.Description),
		"twitter_title":       or(m.TwitterTitle, m.Title),
		"twitter_description": or(m.TwitterDescription, m.Description),
	}
}

// UpdateSEO writes AIOSEO metadata for a page through the AIOSEO REST
// route, falling back to the aioseo_meta_data field of the page.
func (c *Client) UpdateSEO(ctx context.Context, pageID int, meta SEOMeta) error {
	payload := meta.fields()
	payload["robots_default"] = true
	payload["robots_noindex"] = false
	payload["robots_nofollow"] = false

	aioseo := fmt.Sprintf("%s/wp-json/aioseo/v1/post/%d", c.siteURL, pageID)
	_, err := c.do(ctx, request{method: http.MethodPost, url: aioseo, body: payload}, nil)
	if err == nil {
		c.logger.Info("seo meta updated", "page", pageID, "via", "aioseo")
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	c.logger.Warn("aioseo route failed, falling back to page meta", "page", pageID, "error", err)

	fallback := map[string]any{"aioseo_meta_data": meta.fields()}
	if _, err := c.do(ctx, request{method: http.MethodPost, url: c.endpoint("pages", strconv.Itoa(pageID)), body: fallback}, nil); err != nil {
		return fmt.Errorf("update seo meta for page %d: %w", pageID, err)
	}
	c.logger.Info("seo meta updated", "page", pageID, "via", "page")
	return nil
}
