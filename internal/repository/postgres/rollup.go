package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pulse/internal/domain/rollup"
	"pulse/pkg/errors"
)

// Compile-time check
var _ rollup.Repository = (*RollupRepository)(nil)

// RollupRepository implements rollup.Repository using sqlx
type RollupRepository struct {
	db *sqlx.DB
}

// NewRollupRepository creates a new rollup repository
func NewRollupRepository(db *sqlx.DB) *RollupRepository {
	return &RollupRepository{db: db}
}

// GetByDay returns the rollup for a UTC calendar day. More than one row for
// a day violates the one-row-per-day invariant and is never resolved here.
func (r *RollupRepository) GetByDay(ctx context.Context, day time.Time) (*rollup.Rollup, error) {
	var rows []rollup.Rollup

	query := `
		SELECT id, day, sentiment, price, created_at, updated_at
		FROM rollups
		WHERE day = $1`

	if err := r.db.SelectContext(ctx, &rows, query, rollup.DayOf(day)); err != nil {
		return nil, errors.Wrapf(err, "fetch rollup for %s", rollup.DayKey(day))
	}

	switch len(rows) {
	case 0:
		return nil, errors.Wrapf(errors.ErrNotFound, "rollup for %s", rollup.DayKey(day))
	case 1:
		return &rows[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrRollupConflict, "%d rows for %s", len(rows), rollup.DayKey(day))
	}
}

// Insert creates the rollup row for a previously-unseen day and records the
// creating run in rollup_runs, in one statement. If the creating run crashes
// before retiring its events, the ledger entry makes the retry skip its delta.
func (r *RollupRepository) Insert(ctx context.Context, ru *rollup.Rollup, runID uuid.UUID) error {
	query := `
		WITH created AS (
			INSERT INTO rollups (day, sentiment, price, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING day
		)
		INSERT INTO rollup_runs (day, run_id)
		SELECT day, $4 FROM created`

	_, err := r.db.ExecContext(ctx, query,
		rollup.DayOf(ru.Day), ru.Sentiment, ru.Price, runID,
	)
	if err != nil {
		return errors.Wrapf(err, "insert rollup for %s", rollup.DayKey(ru.Day))
	}

	return nil
}

// Accumulate adds delta to the day's running sentiment total in a single
// statement. The rollup_runs ledger keeps one row per (day, run) ever
// applied; claiming the ledger entry and adding the delta happen together,
// so a delta already applied to the day by this run, no matter how many
// other runs touched the day since, affects zero rows and reports
// applied=false. The enrichment price is never touched.
func (r *RollupRepository) Accumulate(ctx context.Context, day time.Time, delta decimal.Decimal, runID uuid.UUID) (bool, error) {
	query := `
		WITH applied AS (
			INSERT INTO rollup_runs (day, run_id)
			SELECT r.day, $3 FROM rollups r WHERE r.day = $1
			ON CONFLICT (day, run_id) DO NOTHING
			RETURNING day
		)
		UPDATE rollups
		SET sentiment = sentiment + $2, updated_at = NOW()
		FROM applied
		WHERE rollups.day = applied.day`

	res, err := r.db.ExecContext(ctx, query, rollup.DayOf(day), delta, runID)
	if err != nil {
		return false, errors.Wrapf(err, "accumulate rollup for %s", rollup.DayKey(day))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}

	return affected == 1, nil
}
