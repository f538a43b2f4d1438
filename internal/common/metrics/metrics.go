// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_calls_total",
			Help: "Total number of matching calls by outcome",
		},
		[]string{"outcome"}, // matched, no_match, partial, error
	)

	MatchingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_duration_seconds",
			Help:    "Duration of one full matching call in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 3, 5, 10},
		},
	)

	SchemesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemes_evaluated_total",
			Help: "Per-scheme qualification verdicts",
		},
		[]string{"verdict"}, // qualified, rejected, inactive, expired, invalid
	)

	AttributeUnknown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attribute_unknown_total",
			Help: "Criterion evaluations that failed closed on a missing profile attribute",
		},
		[]string{"attribute"},
	)

	SuggestionsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggestions_generated_total",
			Help: "Profile-improvement suggestions returned to callers",
		},
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
