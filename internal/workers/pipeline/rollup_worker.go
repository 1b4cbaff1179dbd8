package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pulse/internal/adapters/kafka"
	"pulse/internal/metrics"
	"pulse/internal/services/rollup"
	"pulse/internal/workers"
	"pulse/pkg/errors"
)

// RunLockKey is the Redis key guarding against overlapping pipeline runs
const RunLockKey = "pulse:rollup:run_lock"

// Locker is the distributed lock capability used to enforce the
// single-active-run invariant. Optional: deployments with a non-overlapping
// external scheduler can run without it.
type Locker interface {
	AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

// Publisher pushes the run summary to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// RollupWorker periodically executes the rollup aggregation pipeline
type RollupWorker struct {
	*workers.BaseWorker
	svc      *rollup.Service
	locks    Locker
	producer Publisher
	lockTTL  time.Duration
}

// NewRollupWorker creates a new rollup pipeline worker. locks and producer
// may be nil.
func NewRollupWorker(
	svc *rollup.Service,
	locks Locker,
	producer Publisher,
	interval time.Duration,
	lockTTL time.Duration,
	enabled bool,
) *RollupWorker {
	return &RollupWorker{
		BaseWorker: workers.NewBaseWorker("rollup_pipeline", interval, enabled),
		svc:        svc,
		locks:      locks,
		producer:   producer,
		lockTTL:    lockTTL,
	}
}

// Run executes one aggregation pass under the run lock
func (w *RollupWorker) Run(ctx context.Context) error {
	if w.locks != nil {
		owner := uuid.NewString()

		ok, err := w.locks.AcquireLock(ctx, RunLockKey, owner, w.lockTTL)
		if err != nil {
			w.RecordError(err)
			return errors.Wrap(err, "acquire run lock")
		}
		if !ok {
			// Another run is still active; overlapping runs would
			// double-count deltas, so this pass is skipped entirely
			w.Log().Warnf("Run lock %s is held, skipping pass", RunLockKey)
			return nil
		}
		defer func() {
			if err := w.locks.ReleaseLock(context.Background(), RunLockKey, owner); err != nil {
				w.Log().Warnf("Failed to release run lock: %v", err)
			}
		}()
	}

	report, err := w.svc.Run(ctx)
	w.record(report, err)

	if err != nil {
		w.RecordError(err)
		return err
	}

	w.RecordRun()

	if w.producer != nil && report.Events > 0 {
		if pubErr := w.producer.Publish(ctx, kafka.TopicRollupsReconciled, report.RunID.String(), report); pubErr != nil {
			// Reconciliation is already durable; a lost summary is
			// only an observability gap
			w.Log().Warnf("Failed to publish run summary: %v", pubErr)
		}
	}

	return nil
}

// record translates a run report into pipeline metrics
func (w *RollupWorker) record(report *rollup.RunReport, err error) {
	status := "success"
	switch {
	case err != nil && report.RollupsCreated+report.RollupsUpdated+report.RollupsSkipped > 0:
		status = "partial"
	case err != nil:
		status = "error"
	}
	metrics.PipelineRuns.WithLabelValues(status).Inc()

	metrics.EventsAggregated.Add(float64(report.Events))
	metrics.EventsRetired.Add(float64(report.EventsRetired))
	metrics.Rollups.WithLabelValues("created").Add(float64(report.RollupsCreated))
	metrics.Rollups.WithLabelValues("updated").Add(float64(report.RollupsUpdated))
	metrics.Rollups.WithLabelValues("skipped").Add(float64(report.RollupsSkipped))
	metrics.FailedDays.Add(float64(len(report.FailedDays)))
}
