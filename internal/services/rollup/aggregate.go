package rollup

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pulse/internal/domain/event"
)

// DayGroup is one day bucket entry: the summed sentiment of every event in
// the batch that falls on the day, plus the ids needed for retirement.
// Retirement is all-or-nothing per day, so the ids travel with the sum.
type DayGroup struct {
	Sum      decimal.Decimal
	EventIDs []int64
}

// Bucket maps each UTC calendar day to its aggregated batch contribution.
// Built fresh each run and discarded after reconciliation.
type Bucket map[time.Time]*DayGroup

// AggregateByDay reduces a batch of events into a day bucket. Pure function:
// no side effects, summation order does not matter because sentiment is
// decimal, an empty batch yields an empty bucket.
func AggregateByDay(events []event.Event) Bucket {
	bucket := make(Bucket)

	for _, e := range events {
		day := e.Day()
		grp, ok := bucket[day]
		if !ok {
			grp = &DayGroup{Sum: decimal.Zero}
			bucket[day] = grp
		}
		grp.Sum = grp.Sum.Add(e.Sentiment)
		grp.EventIDs = append(grp.EventIDs, e.ID)
	}

	return bucket
}

// Days returns the bucket's days in ascending order
func (b Bucket) Days() []time.Time {
	days := make([]time.Time, 0, len(b))
	for day := range b {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// RunBatch is the slice of a fetched batch claimed by one run id. A normal
// pass has a single batch; extra batches appear when an earlier run crashed
// between reconciliation and retirement and its events are still present.
type RunBatch struct {
	RunID  uuid.UUID
	Events []event.Event
}

// GroupByRun splits events by their claim run id, oldest claims first so a
// crashed run's leftovers are settled before this run's own batch.
func GroupByRun(events []event.Event) []RunBatch {
	byRun := make(map[uuid.UUID][]event.Event)
	for _, e := range events {
		byRun[e.RunID] = append(byRun[e.RunID], e)
	}

	batches := make([]RunBatch, 0, len(byRun))
	for runID, evs := range byRun {
		batches = append(batches, RunBatch{RunID: runID, Events: evs})
	}

	// Lowest event id approximates claim age; map order is random
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].Events[0].ID < batches[j].Events[0].ID
	})

	return batches
}
