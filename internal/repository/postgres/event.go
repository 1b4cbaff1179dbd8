package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pulse/internal/domain/event"
	"pulse/pkg/errors"
)

// Compile-time check
var _ event.Repository = (*EventRepository)(nil)

// EventRepository implements event.Repository using sqlx
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ClaimPending stamps unclaimed events created before the current UTC date
// with runID and returns all claimed eligible events in one statement. Events
// stamped by an earlier run that never retired them come back with their
// original run id; the second branch reads the pre-update snapshot, so a row
// claimed by the CTE appears exactly once. An empty batch writes nothing.
func (r *EventRepository) ClaimPending(ctx context.Context, runID uuid.UUID) ([]event.Event, error) {
	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	query := `
		WITH claimed AS (
			UPDATE events
			SET run_id = $1
			WHERE run_id IS NULL AND created_at < $2
			RETURNING id, event_id, sentiment, created_at, run_id
		)
		SELECT id, event_id, sentiment, created_at, run_id FROM claimed
		UNION ALL
		SELECT id, event_id, sentiment, created_at, run_id
		FROM events
		WHERE run_id IS NOT NULL AND created_at < $2
		ORDER BY id`

	var events []event.Event
	if err := r.db.SelectContext(ctx, &events, query, runID, cutoff); err != nil {
		return nil, errors.Wrap(err, "claim pending events")
	}

	return events, nil
}

// Delete permanently removes the given events
func (r *EventRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM events WHERE id = ANY($1)`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "delete events")
	}

	return nil
}
