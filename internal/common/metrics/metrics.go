package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntakeTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_transitions_total",
			Help: "State transitions of the registration intake machine",
		},
		[]string{"from", "to"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Registration submissions by outcome",
		},
		[]string{"outcome"},
	)

	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_checks_total",
			Help: "Identifier lookups by outcome",
		},
		[]string{"outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of backend API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed",
		},
		[]string{"task_type"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

// GatewayObserver feeds GatewayRequestDuration from the HTTP client.
type GatewayObserver struct{}

func (GatewayObserver) ObserveRequest(_ context.Context, operation string, status int, duration time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	GatewayRequestDuration.WithLabelValues(operation, label).Observe(duration.Seconds())
}
