package repository

import (
	"context"
	"errors"
	"fmt"

	"review-reconciler/core/models"
)

// EventRepository handles database operations for run events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateRunEvent records one poll attempt
func (r *EventRepository) CreateRunEvent(ctx context.Context, runID string, attempt models.Attempt) error {
	reason := ""
	switch {
	case attempt.Err == nil:
	case errors.Is(attempt.Err, models.ErrTransientAbsence):
		reason = "transient_absence"
	case errors.Is(attempt.Err, models.ErrStoreUnreachable):
		reason = "store_unreachable"
	default:
		reason = attempt.Err.Error()
	}

	query := `
		INSERT INTO run_events (run_id, attempt, at, review_state, debt_state, complete, reason)
		VALUES ($1, $2, NOW(), $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		runID,
		attempt.Number,
		attempt.Review.State,
		attempt.Debt.State,
		attempt.Complete,
		reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt %d of run %s: %w", attempt.Number, runID, err)
	}
	return nil
}

// GetRunEvents retrieves attempts for a run in attempt order
func (r *EventRepository) GetRunEvents(ctx context.Context, runID string, limit int) ([]models.RunEvent, error) {
	query := `
		SELECT id, run_id, attempt, at, review_state, debt_state, complete, reason
		FROM run_events
		WHERE run_id = $1
		ORDER BY attempt ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer rows.Close()

	var events []models.RunEvent
	for rows.Next() {
		var event models.RunEvent
		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.Attempt,
			&event.At,
			&event.ReviewState,
			&event.DebtState,
			&event.Complete,
			&event.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
