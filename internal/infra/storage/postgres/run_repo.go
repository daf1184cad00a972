package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/storage"
	"github.com/vietddude/recipefetch/internal/pipeline/metrics"
)

const (
	upsertRunQuery = `
INSERT INTO fetch_runs (id, route, started_at, finished_at, attempts, outcome, status_code, recipe_count, error_msg)
VALUES (:id, :route, :started_at, :finished_at, :attempts, :outcome, :status_code, :recipe_count, :error_msg)
ON CONFLICT (id) DO UPDATE SET
    finished_at  = EXCLUDED.finished_at,
    attempts     = EXCLUDED.attempts,
    outcome      = EXCLUDED.outcome,
    status_code  = EXCLUDED.status_code,
    recipe_count = EXCLUDED.recipe_count,
    error_msg    = EXCLUDED.error_msg`

	selectRunColumns = `id, route, started_at, finished_at, attempts, outcome, status_code, recipe_count, error_msg`

	pruneRunsQuery = `
DELETE FROM fetch_runs
WHERE id NOT IN (SELECT id FROM fetch_runs ORDER BY started_at DESC LIMIT $1)`
)

// RunRepo implements storage.RunRepository using PostgreSQL.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new PostgreSQL fetch run repository.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

var _ storage.RunRepository = (*RunRepo)(nil)

// Save upserts a fetch run.
func (r *RunRepo) Save(ctx context.Context, run *domain.FetchRun) error {
	if _, err := r.db.NamedExecContext(ctx, upsertRunQuery, run); err != nil {
		metrics.JournalWrites.WithLabelValues("postgres", "error").Inc()
		return fmt.Errorf("failed to save fetch run: %w", err)
	}
	metrics.JournalWrites.WithLabelValues("postgres", "success").Inc()
	return nil
}

// Get retrieves a run by id.
func (r *RunRepo) Get(ctx context.Context, id string) (*domain.FetchRun, error) {
	var run domain.FetchRun
	err := r.db.GetContext(ctx, &run, `SELECT `+selectRunColumns+` FROM fetch_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch run: %w", err)
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first. A non-positive limit returns all.
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]*domain.FetchRun, error) {
	query := `SELECT ` + selectRunColumns + ` FROM fetch_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var runs []*domain.FetchRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list fetch runs: %w", err)
	}
	return runs, nil
}

// Prune deletes all but the newest keep runs.
func (r *RunRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, pruneRunsQuery, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune fetch runs: %w", err)
	}
	return res.RowsAffected()
}
