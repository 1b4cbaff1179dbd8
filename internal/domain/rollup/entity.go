package rollup

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rollup is the durable per-day aggregate of sentiment. Sentiment is a
// running total across every pipeline run that has ever touched the day;
// the source events are deleted after processing, so it can never be
// recomputed from scratch. At most one row exists per calendar day.
type Rollup struct {
	ID        int64           `db:"id"`
	Day       time.Time       `db:"day"` // UTC midnight, DATE column
	Sentiment decimal.Decimal `db:"sentiment"`

	// Price is the closing price enrichment, fetched once when the row is
	// created and never recomputed.
	Price decimal.NullDecimal `db:"price"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a UTC day as YYYY-MM-DD for logs and errors.
func DayKey(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}
