package rollup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for rollup row access
type Repository interface {
	// GetByDay returns the rollup for a UTC calendar day.
	// Returns errors.ErrNotFound when no row exists and
	// errors.ErrRollupConflict when more than one row exists.
	GetByDay(ctx context.Context, day time.Time) (*Rollup, error)

	// Insert creates the rollup row for a previously-unseen day with its
	// price enrichment, and records runID as applied to that day.
	Insert(ctx context.Context, r *Rollup, runID uuid.UUID) error

	// Accumulate adds delta to the day's sentiment and records runID as
	// applied to that day, unless the day already carries runID. Each
	// (day, run) pair applies at most once, so any number of crashed runs
	// can leave their events behind without their deltas being re-added.
	// Returns false when the delta was skipped.
	Accumulate(ctx context.Context, day time.Time, delta decimal.Decimal, runID uuid.UUID) (bool, error)
}
