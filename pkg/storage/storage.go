package storage

import (
	"context"
	"errors"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence layer for signups and archived usage
// counters.
type Storage interface {
	// RecordSubscription persists an email signup.
	RecordSubscription(ctx context.Context, sub *model.Subscription) error

	// ListSubscriptions returns signups matching the filter, newest first.
	ListSubscriptions(ctx context.Context, filter model.Filter) ([]model.Subscription, error)

	// CountSubscriptions returns the number of signups per tool.
	CountSubscriptions(ctx context.Context, filter model.Filter) (map[string]int64, error)

	// SaveSnapshot archives a counter snapshot.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error

	// ListSnapshots returns archived snapshots matching the filter, newest first.
	ListSnapshots(ctx context.Context, filter model.Filter) ([]model.Snapshot, error)

	// LatestSnapshot returns the most recent archived snapshot.
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)

	// Close releases resources.
	Close() error
}
