package litellm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/catalog"
)

// Result is the outcome of a sync run.
type Result struct {
	Pricing *catalog.Pricing
	Changes []string
	Fetched int
	Applied bool
}

// Syncer refreshes a pricing catalog file from the feed.
type Syncer struct {
	client *http.Client
	url    string
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncer returns a Syncer writing to the catalog at path. A nil client
// gets a 30 second timeout.
func NewSyncer(path string, client *http.Client, logger *slog.Logger) *Syncer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Syncer{client: client, url: FeedURL, path: path, logger: logger, now: time.Now}
}

// WithURL points the syncer at another feed.
func (s *Syncer) WithURL(url string) *Syncer {
	s.url = url
	return s
}

// WithClock replaces the clock used for the catalog date.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Run fetches the feed and computes the merged catalog. The file is only
// rewritten when apply is set.
func (s *Syncer) Run(ctx context.Context, apply bool) (*Result, error) {
	s.logger.Info("fetching litellm pricing", "url", s.url)
	feed, err := Fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fetched litellm pricing", "entries", feed.Len())

	fresh := Transform(feed, s.logger)
	fetched := 0
	for pair := fresh.Oldest(); pair != nil; pair = pair.Next() {
		fetched += pair.Value.Models.Len()
	}
	if fetched == 0 {
		return nil, ErrNoModels
	}

	current, err := catalog.LoadPricing(s.path)
	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		s.logger.Warn("no existing pricing catalog, starting empty", "path", s.path)
		current = catalog.NewPricing()
	case err != nil:
		return nil, fmt.Errorf("load current pricing: %w", err)
	}

	merged := Merge(current, fresh, s.now())
	res := &Result{Pricing: merged, Changes: Changes(current, merged), Fetched: fetched}
	if !apply {
		return res, nil
	}
	if err := catalog.WritePricing(s.path, merged); err != nil {
		return nil, err
	}
	res.Applied = true
	s.logger.Info("pricing catalog updated", "path", s.path, "models", merged.ModelCount(), "changes", len(res.Changes))
	return res, nil
}
