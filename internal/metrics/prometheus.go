package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_pipeline_runs_total",
			Help: "Total number of rollup pipeline runs",
		},
		[]string{"status"}, // status: success|partial|error
	)

	EventsAggregated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_events_aggregated_total",
			Help: "Total number of events folded into day buckets",
		},
	)

	EventsRetired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_events_retired_total",
			Help: "Total number of events deleted after reconciliation",
		},
	)

	Rollups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_rollups_total",
			Help: "Total number of rollup writes by outcome",
		},
		[]string{"outcome"}, // outcome: created|updated|skipped
	)

	FailedDays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_failed_days_total",
			Help: "Total number of days left unreconciled by a run",
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)
)

// Register registers all metrics with the default registry
func Register() {
	prometheus.MustRegister(
		PipelineRuns,
		EventsAggregated,
		EventsRetired,
		Rollups,
		FailedDays,
		WorkerExecutions,
		WorkerDuration,
	)
}

// StartServer exposes /metrics on the given port
func StartServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
