package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Storage = (*SQLite)(nil)

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the CLI read history while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordSubscription(ctx context.Context, sub *model.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.Email = model.NormalizeEmail(sub.Email)
	tags, err := json.Marshal(nonNil(sub.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, tool, tags, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Email, sub.Tool, string(tags), sub.Outcome, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *SQLite) ListSubscriptions(ctx context.Context, filter model.Filter) ([]model.Subscription, error) {
	query := "SELECT id, email, tool, tags, outcome, created_at FROM subscriptions"
	where, args := buildWhereClause(filter, "tool", "created_at")
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC"
	query, args = withLimit(query, args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var tags string
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Tool, &tags, &sub.Outcome, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &sub.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLite) CountSubscriptions(ctx context.Context, filter model.Filter) (map[string]int64, error) {
	query := "SELECT tool, COUNT(*) FROM subscriptions"
	where, args := buildWhereClause(filter, "tool", "created_at")
	if where != "" {
		query += " WHERE " + where
	}
	query += " GROUP BY tool"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var tool string
		var n int64
		if err := rows.Scan(&tool, &n); err != nil {
			return nil, fmt.Errorf("scan subscription count: %w", err)
		}
		result[tool] = n
	}
	return result, rows.Err()
}

func (s *SQLite) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now()
	}
	snap.CapturedAt = snap.CapturedAt.UTC()
	if snap.Source == "" {
		snap.Source = model.SourceLocal
	}
	if snap.Data == "" {
		snap.Data = "{}"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (id, source, started_at, decodes, calculations, status_checks, data, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Source, snap.StartedAt, snap.Decodes, snap.Calculations,
		snap.StatusChecks, snap.Data, snap.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = "id, source, started_at, decodes, calculations, status_checks, data, captured_at"

func scanSnapshot(row interface{ Scan(...any) error }) (model.Snapshot, error) {
	var snap model.Snapshot
	err := row.Scan(&snap.ID, &snap.Source, &snap.StartedAt, &snap.Decodes,
		&snap.Calculations, &snap.StatusChecks, &snap.Data, &snap.CapturedAt)
	return snap, err
}

func (s *SQLite) ListSnapshots(ctx context.Context, filter model.Filter) ([]model.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM analytics_snapshots"
	where, args := buildWhereClause(filter, "", "captured_at")
	if filter.Source != "" {
		where = joinConditions(where, "source = ?")
		args = append(args, filter.Source)
	}
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY captured_at DESC"
	query, args = withLimit(query, args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *SQLite) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM analytics_snapshots ORDER BY captured_at DESC LIMIT 1")
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a Filter. An empty
// toolColumn skips the tool condition.
func buildWhereClause(filter model.Filter, toolColumn, timeColumn string) (string, []any) {
	var conditions []string
	var args []any

	if toolColumn != "" && filter.Tool != "" {
		conditions = append(conditions, toolColumn+" = ?")
		args = append(args, filter.Tool)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, timeColumn+" >= ?")
		args = append(args, filter.StartTime.UTC())
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, timeColumn+" < ?")
		args = append(args, filter.EndTime.UTC())
	}

	return strings.Join(conditions, " AND "), args
}

func joinConditions(where, cond string) string {
	if where == "" {
		return cond
	}
	return where + " AND " + cond
}

func withLimit(query string, args []any, limit int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	return query + " LIMIT ?", append(args, limit)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
