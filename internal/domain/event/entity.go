package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is a single sentiment-scored occurrence produced upstream. Events are
// immutable facts: the pipeline reads them, folds them into their day's
// rollup, and deletes them. EventID is the producer-assigned identifier and
// is not required to be unique at this layer.
type Event struct {
	ID        int64           `db:"id"`
	EventID   string          `db:"event_id"`
	Sentiment decimal.Decimal `db:"sentiment"`
	CreatedAt time.Time       `db:"created_at"`

	// RunID is the claim stamp of the pipeline run that fetched this event.
	// Events claimed by a run that crashed before retiring them keep their
	// old stamp, which is how a later run detects already-applied deltas.
	RunID uuid.UUID `db:"run_id"`
}

// Day returns the UTC calendar day this event falls on.
func (e Event) Day() time.Time {
	t := e.CreatedAt.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
