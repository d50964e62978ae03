package model

import (
	"strings"
	"time"
)

// Subscription is an email signup from one of the tool pages.
type Subscription struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Tool      string    `json:"tool" db:"tool"`
	Tags      []string  `json:"tags" db:"tags"`
	Outcome   string    `json:"outcome" db:"outcome"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SnapshotSource tells where an archived counter snapshot came from.
type SnapshotSource string

const (
	SourceLocal  SnapshotSource = "local"
	SourceRemote SnapshotSource = "remote"
	SourceReset  SnapshotSource = "reset"
)

// Snapshot is an archived copy of the usage counters. Data holds the
// snapshot JSON as served by /analytics/stats.
type Snapshot struct {
	ID           string         `json:"id" db:"id"`
	Source       SnapshotSource `json:"source" db:"source"`
	StartedAt    string         `json:"started_at" db:"started_at"`
	Decodes      int64          `json:"decodes" db:"decodes"`
	Calculations int64          `json:"calculations" db:"calculations"`
	StatusChecks int64          `json:"status_checks" db:"status_checks"`
	Data         string         `json:"data" db:"data"`
	CapturedAt   time.Time      `json:"captured_at" db:"captured_at"`
}

// Filter selects stored records.
type Filter struct {
	Tool      string         `json:"tool,omitempty"`
	Source    SnapshotSource `json:"source,omitempty"`
	StartTime time.Time      `json:"start_time,omitempty"`
	EndTime   time.Time      `json:"end_time,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// LastDays returns the window covering the given number of whole days up
// to the end of the day of now.
func LastDays(days int, now time.Time) (start, end time.Time) {
	if days < 1 {
		days = 1
	}
	now = now.UTC()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start = end.AddDate(0, 0, -days)
	return start, end
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
