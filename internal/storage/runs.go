package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"edgealign/internal/domain"
)

// RunStore is the database/sql journal of optimization runs.
type RunStore struct {
	db *DB
}

func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// prepareRun fills the id and timestamp of a new record.
func prepareRun(r *domain.OptimizeRun) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func (s *RunStore) RecordRun(ctx context.Context, r *domain.OptimizeRun) error {
	prepareRun(r)
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO optimize_runs (id, source, path, status, elements, connectors, rewritten, width_fixed, unbound, changed, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, string(r.Source), r.Path, r.Status, r.Elements, r.Connectors, r.Rewritten,
		r.WidthFixed, r.Unbound, boolToInt(r.Changed), r.DurationMs, r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]domain.OptimizeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, source, path, status, elements, connectors, rewritten, width_fixed, unbound, changed, duration_ms, created_at
		FROM optimize_runs ORDER BY created_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.OptimizeRun
	for rows.Next() {
		var r domain.OptimizeRun
		var source string
		var changed int
		var createdAt int64
		if err := rows.Scan(&r.ID, &source, &r.Path, &r.Status, &r.Elements, &r.Connectors,
			&r.Rewritten, &r.WidthFixed, &r.Unbound, &changed, &r.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Source = domain.RunSource(source)
		r.Changed = changed != 0
		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PruneRuns deletes runs created before olderThan.
func (s *RunStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`DELETE FROM optimize_runs WHERE created_at < ?`), olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NopStore discards runs. Used when the journal is disabled.
type NopStore struct{}

func (NopStore) RecordRun(_ context.Context, r *domain.OptimizeRun) error {
	prepareRun(r)
	return nil
}

func (NopStore) ListRuns(context.Context, int) ([]domain.OptimizeRun, error) { return nil, nil }

func (NopStore) PruneRuns(context.Context, time.Time) (int64, error) { return 0, nil }

func (NopStore) Close() error { return nil }
