package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"review-reconciler/core/models"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// RunRepository handles database operations for runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts a run, assigning an ID when it has none
func (r *RunRepository) CreateRun(ctx context.Context, run *models.Run) error {
	runID := uuid.New()
	if run.ID != "" {
		var err error
		runID, err = uuid.Parse(run.ID)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", run.ID, err)
		}
	}

	now := time.Now().UTC()
	if run.Status == "" {
		run.Status = models.RunStatusPolling
	}

	query := `
		INSERT INTO runs (id, repo_url, source_location, status, attempts, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		runID,
		run.RepoURL,
		run.SourceLocation,
		run.Status,
		run.Attempts,
		run.Message,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	run.ID = runID.String()
	run.CreatedAt = now
	run.UpdatedAt = now
	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}

	query := `
		SELECT id, repo_url, source_location, status, attempts, snapshot_json, message,
			created_at, updated_at, finished_at
		FROM runs
		WHERE id = $1
	`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (r *RunRepository) ListRuns(ctx context.Context, status *models.RunStatus, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, repo_url, source_location, status, attempts, snapshot_json, message,
			created_at, updated_at, finished_at
		FROM runs
	`
	args := []interface{}{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateAttempts records progress of a run that is still polling
func (r *RunRepository) UpdateAttempts(ctx context.Context, id string, attempts int) error {
	query := `UPDATE runs SET attempts = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	_, err := r.db.ExecContext(ctx, query, attempts, id, models.RunStatusPolling)
	return err
}

// FinishRun moves a run into its terminal status
func (r *RunRepository) FinishRun(
	ctx context.Context,
	id string,
	status models.RunStatus,
	attempts int,
	snapshot *models.Snapshot,
	message string,
) error {
	var snapshotJSON []byte
	if snapshot != nil {
		var err error
		snapshotJSON, err = json.Marshal(snapshot.View())
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}

	query := `
		UPDATE runs
		SET status = $1, attempts = $2, snapshot_json = $3, message = $4,
			updated_at = NOW(), finished_at = NOW()
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, status, attempts, nullableJSON(snapshotJSON), message, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var run models.Run
	var snapshotJSON []byte
	var finishedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.RepoURL,
		&run.SourceLocation,
		&run.Status,
		&run.Attempts,
		&snapshotJSON,
		&run.Message,
		&run.CreatedAt,
		&run.UpdatedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(snapshotJSON) > 0 {
		var view models.SnapshotView
		if err := json.Unmarshal(snapshotJSON, &view); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot of run %s: %w", run.ID, err)
		}
		run.Snapshot = &view
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
