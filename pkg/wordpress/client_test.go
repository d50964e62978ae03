package wordpress_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

func newClient(t *testing.T, h http.HandlerFunc) *wordpress.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := wordpress.Config{SiteURL: srv.URL + "/", Username: "editor", AppPassword: "app pass"}
	return wordpress.NewClient(cfg, srv.Client(), logger).
		WithBackoff(func(int) time.Duration { return 0 })
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, wordpress.ExponentialBackoff(0))
	assert.Equal(t, 10*time.Second, wordpress.ExponentialBackoff(1))
	assert.Equal(t, 20*time.Second, wordpress.ExponentialBackoff(2))
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, []wordpress.Page{{ID: 7, Slug: "ai-pricing-calculator"}})
	})

	page, err := c.PageBySlug(context.Background(), "ai-pricing-calculator")
	require.NoError(t, err)
	assert.Equal(t, 7, page.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.PageBySlug(context.Background(), "x")
	var apiErr *wordpress.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(wordpress.MaxRetries+1), calls.Load())
}

func TestRetry_NonRetryableReturnsImmediately(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		writeJSON(w, map[string]string{"code": "rest_forbidden", "message": "Sorry, you are not allowed"})
	})

	_, err := c.Page(context.Background(), 3)
	var apiErr *wordpress.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "rest_forbidden", apiErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetry_WaitHonorsContext(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}).WithBackoff(func(int) time.Duration { return time.Hour })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ListPages(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPage_UsesEditContextAndAuth(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/pages/42", r.URL.Path)
		assert.Equal(t, "edit", r.URL.Query().Get("context"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "editor", user)
		assert.Equal(t, "app pass", pass)
		writeJSON(w, map[string]any{
			"id":      42,
			"title":   map[string]string{"rendered": "T", "raw": "Raw T"},
			"content": map[string]string{"rendered": "<p>x</p>", "raw": "x"},
		})
	})

	page, err := c.Page(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Raw T", page.Title.Value())
	assert.Equal(t, "x", page.Content.Value())
}

func TestPageBySlug_NotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []wordpress.Page{})
	})
	_, err := c.PageBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, wordpress.ErrNotFound)
}

func TestCreatePage_RequiresContent(t *testing.T) {
	c := newClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.CreatePage(context.Background(), wordpress.PageInput{Title: "x"})
	assert.ErrorIs(t, err, wordpress.ErrMissingContent)
}

func TestUpsertPage(t *testing.T) {
	tests := []struct {
		name        string
		existing    []wordpress.Page
		wantCreated bool
		wantPath    string
	}{
		{"creates when missing", nil, true, "/wp-json/wp/v2/pages"},
		{"updates when present", []wordpress.Page{{ID: 9}}, false, "/wp-json/wp/v2/pages/9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var posted map[string]any
			var postPath string
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					assert.Equal(t, "ai-status", r.URL.Query().Get("slug"))
					writeJSON(w, append([]wordpress.Page{}, tt.existing...))
					return
				}
				postPath = r.URL.Path
				require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
				writeJSON(w, wordpress.Page{ID: 9, Slug: "ai-status"})
			})

			page, created, err := c.UpsertPage(context.Background(), wordpress.PageInput{
				Slug:    "ai-status",
				Content: "<p>hello</p>",
			})
			require.NoError(t, err)
			assert.Equal(t, 9, page.ID)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, tt.wantPath, postPath)
			if tt.wantCreated {
				assert.Equal(t, "Draft Page", posted["title"])
				assert.Equal(t, "draft", posted["status"])
			}
		})
	}
}

func TestListPages_Paginates(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		w.Header().Set("X-WP-TotalPages", "3")
		writeJSON(w, []wordpress.Page{{ID: page * 10}, {ID: page*10 + 1}})
	})

	pages, err := c.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 6)
	assert.Equal(t, 10, pages[0].ID)
	assert.Equal(t, 31, pages[5].ID)
}

func TestUpsertPost_UpdatesExisting(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/wp-json/wp/v2/posts":
			writeJSON(w, []wordpress.Post{{ID: 5, Slug: "ai-openai-429-errors"}})
		case r.Method == http.MethodPost && r.URL.Path == "/wp-json/wp/v2/posts/5":
			var in wordpress.PostInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, []int{12}, in.Categories)
			writeJSON(w, wordpress.Post{ID: 5, Categories: in.Categories})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	post, created, err := c.UpsertPost(context.Background(), wordpress.PostInput{
		Slug: "ai-openai-429-errors", Content: "<p>x</p>", Categories: []int{12},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []int{12}, post.Categories)
}

func TestEnsureCategory(t *testing.T) {
	t.Run("matches existing name ignoring case", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			writeJSON(w, []wordpress.Category{{ID: 3, Name: "AI Developer Tools Extra"}, {ID: 4, Name: "ai developer tools"}})
		})
		id, err := c.EnsureCategory(context.Background(), "AI Developer Tools", "", "", 0)
		require.NoError(t, err)
		assert.Equal(t, 4, id)
	})

	t.Run("creates when missing", func(t *testing.T) {
		var body map[string]any
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				writeJSON(w, []wordpress.Category{})
				return
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, wordpress.Category{ID: 11})
		})
		id, err := c.EnsureCategory(context.Background(), "Guides", "ai-guides", "", 4)
		require.NoError(t, err)
		assert.Equal(t, 11, id)
		assert.Equal(t, map[string]any{"name": "Guides", "slug": "ai-guides", "parent": float64(4)}, body)
	})
}

func TestDeleteCategory_Force(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/categories/8", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		writeJSON(w, map[string]any{"deleted": true})
	})
	require.NoError(t, c.DeleteCategory(context.Background(), 8))
}

func TestUpdateSEO(t *testing.T) {
	t.Run("aioseo route", func(t *testing.T) {
		var body map[string]any
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/wp-json/aioseo/v1/post/15", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, map[string]any{"success": true})
		})
		err := c.UpdateSEO(context.Background(), 15, wordpress.SEOMeta{Title: "T", Description: "D"})
		require.NoError(t, err)
		assert.Equal(t, "T", body["og_title"])
		assert.Equal(t, "D", body["twitter_description"])
		assert.Equal(t, true, body["robots_default"])
	})

	t.Run("falls back to page meta", func(t *testing.T) {
		var fallback map[string]any
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/wp-json/aioseo/v1/post/15" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			assert.Equal(t, "/wp-json/wp/v2/pages/15", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fallback))
			writeJSON(w, map[string]any{"id": 15})
		})
		err := c.UpdateSEO(context.Background(), 15, wordpress.SEOMeta{Title: "T", Description: "D", OGTitle: "OG"})
		require.NoError(t, err)
		meta := fallback["aioseo_meta_data"].(map[string]any)
		assert.Equal(t, "OG", meta["og_title"])
		assert.Equal(t, "T", meta["twitter_title"])
	})

	t.Run("both fail", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		err := c.UpdateSEO(context.Background(), 15, wordpress.SEOMeta{Title: "T"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), fmt.Sprintf("page %d", 15))
	})
}
