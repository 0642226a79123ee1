package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all pipeline metrics
type Metrics struct {
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	JobsRetried   *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec

	NotesQueued       prometheus.Counter
	TranscriptsQueued prometheus.Counter
}

// New creates and registers all pipeline metrics
func New(namespace string) *Metrics {
	return &Metrics{
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Total number of successfully processed jobs",
		}, []string{"task"}),
		JobsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of failed jobs",
		}, []string{"task"}),
		JobsRetried: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_retried_total",
			Help:      "Total number of job retry attempts",
		}, []string{"task"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent processing jobs",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"task"}),
		NotesQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_queued_total",
			Help:      "Total number of note generation jobs dispatched",
		}),
		TranscriptsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_queued_total",
			Help:      "Total number of transcription jobs dispatched",
		}),
	}
}
