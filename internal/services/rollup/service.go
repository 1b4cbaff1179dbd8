package rollup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pulse/internal/domain/event"
	"pulse/internal/domain/pricing"
	"pulse/internal/domain/rollup"
	"pulse/pkg/errors"
	"pulse/pkg/logger"
)

// Service runs the rollup aggregation and reconciliation pipeline: fetch the
// pending batch, bucket it by UTC day, fold each day's sum into its rollup
// (creating and price-enriching rows for unseen days), then retire the events
// whose contribution is durably recorded.
//
// One run processes one batch sequentially; overlapping runs against the same
// store are not safe and are prevented by the caller (run lock or scheduler).
type Service struct {
	events  event.Repository
	rollups rollup.Repository
	prices  pricing.Source
	log     *logger.Logger
}

// NewService creates a new rollup pipeline service
func NewService(events event.Repository, rollups rollup.Repository, prices pricing.Source, log *logger.Logger) *Service {
	return &Service{
		events:  events,
		rollups: rollups,
		prices:  prices,
		log:     log.With("service", "rollup"),
	}
}

// RunReport summarizes one aggregation pass
type RunReport struct {
	RunID          uuid.UUID `json:"run_id"`
	Events         int       `json:"events"`
	Days           int       `json:"days"`
	RollupsCreated int       `json:"rollups_created"`
	RollupsUpdated int       `json:"rollups_updated"`
	RollupsSkipped int       `json:"rollups_skipped"` // deltas a crashed run already applied
	EventsRetired  int       `json:"events_retired"`
	FailedDays     []string  `json:"failed_days,omitempty"`
}

// Run executes one pipeline pass. A non-nil report is always returned; the
// error aggregates every day that was left unreconciled. Days that failed
// keep their events so a later run can pick them up again.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.New()
	report := &RunReport{RunID: runID}
	log := s.log.With("run_id", runID.String())

	events, err := s.events.ClaimPending(ctx, runID)
	if err != nil {
		return report, errors.Wrap(err, "fetch pending events")
	}

	report.Events = len(events)
	if len(events) == 0 {
		log.Debug("No pending events, nothing to do")
		return report, nil
	}

	var failures errors.MultiError
	var retire []int64
	aborted := false

	for _, batch := range GroupByRun(events) {
		bucket := AggregateByDay(batch.Events)
		report.Days += len(bucket)

		for _, day := range bucket.Days() {
			if aborted {
				failures.Add(errors.NewDayError("reconcile", rollup.DayKey(day), errors.Wrap(errors.ErrInternal, "run aborted")))
				report.FailedDays = append(report.FailedDays, rollup.DayKey(day))
				continue
			}

			grp := bucket[day]
			err := s.reconcileDay(ctx, batch.RunID, day, grp.Sum, report)
			switch {
			case err == nil:
				// Delta is durable, the day's events may be retired
				retire = append(retire, grp.EventIDs...)
			case errors.Is(err, errors.ErrPriceUnavailable):
				// Data failure scoped to this day: no rollup row was
				// written, the events stay for the next run
				log.Warnf("Skipping day %s: %v", rollup.DayKey(day), err)
				failures.Add(err)
			default:
				// Store failure or invariant violation: stop
				// reconciling, days already confirmed still retire
				log.Errorf("Aborting run at day %s: %v", rollup.DayKey(day), err)
				failures.Add(err)
				aborted = true
			}

			if fd, ok := failedDay(err); ok {
				report.FailedDays = append(report.FailedDays, fd)
			}
		}
	}

	if len(retire) > 0 {
		// Ordered strictly after reconciliation: every id here has its
		// contribution durably recorded, so deleting is safe, and a
		// failure here is recoverable because the run-id guard makes
		// the next run skip the already-applied deltas.
		if err := s.events.Delete(ctx, retire); err != nil {
			log.Errorf("Retirement failed, events will be re-processed: %v", err)
			failures.Add(errors.Wrap(err, "retire events"))
		} else {
			report.EventsRetired = len(retire)
		}
	}

	log.Infof("Run complete: %d events, %d days, %d created, %d updated, %d skipped, %d retired, %d failed days",
		report.Events, report.Days, report.RollupsCreated, report.RollupsUpdated,
		report.RollupsSkipped, report.EventsRetired, len(report.FailedDays))

	return report, failures.ToError()
}

// reconcileDay folds one day's delta into its rollup. Found rows accumulate
// additively with the enrichment untouched; unseen days are price-enriched
// and inserted. Returned errors carry the day and operation.
func (s *Service) reconcileDay(ctx context.Context, runID uuid.UUID, day time.Time, delta decimal.Decimal, report *RunReport) error {
	existing, err := s.rollups.GetByDay(ctx, day)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return errors.NewDayError("reconcile", rollup.DayKey(day), err)
	}

	if existing == nil {
		// Price enrichment happens exactly once, at creation. A missing
		// price aborts the day so no rollup exists with an enrichment
		// that can never be backfilled.
		price, err := s.prices.ClosingPrice(ctx, day)
		if err != nil {
			return errors.NewDayError("price", rollup.DayKey(day), err)
		}

		r := &rollup.Rollup{
			Day:       day,
			Sentiment: delta,
			Price:     decimal.NewNullDecimal(price),
		}
		if err := s.rollups.Insert(ctx, r, runID); err != nil {
			return errors.NewDayError("reconcile", rollup.DayKey(day), err)
		}

		report.RollupsCreated++
		s.log.Infof("Created rollup %s sentiment=%s price=%s", rollup.DayKey(day), delta, price)
		return nil
	}

	applied, err := s.rollups.Accumulate(ctx, day, delta, runID)
	if err != nil {
		return errors.NewDayError("reconcile", rollup.DayKey(day), err)
	}

	if !applied {
		// This run id already folded its delta in and then crashed
		// before retiring the events; re-adding would double-count
		report.RollupsSkipped++
		s.log.Infof("Delta for %s already applied by run %s, retiring only", rollup.DayKey(day), runID)
		return nil
	}

	report.RollupsUpdated++
	s.log.Infof("Accumulated rollup %s delta=%s", rollup.DayKey(day), delta)
	return nil
}

// failedDay extracts the day from a day-scoped error
func failedDay(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var dayErr *errors.DayError
	if errors.As(err, &dayErr) {
		return dayErr.Day, true
	}
	return "", false
}
