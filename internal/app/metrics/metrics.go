package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters the operators actually look at: job
// throughput, failures, sweep activity, and rate-limit pressure.
type Metrics struct {
	JobsCompleted      prometheus.Counter
	JobsFailed         prometheus.Counter
	ProcessingSeconds  prometheus.Histogram
	SweepDeleted       prometheus.Counter
	SweepErrors        prometheus.Counter
	RateLimitRejected  *prometheus.CounterVec
	QuotaRejected      prometheus.Counter
}

// New registers all collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videosplit_jobs_completed_total",
			Help: "Jobs that reached the completed state.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videosplit_jobs_failed_total",
			Help: "Jobs that reached the failed state.",
		}),
		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "videosplit_processing_seconds",
			Help:    "Wall time of encoder runs per job.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SweepDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videosplit_sweep_deleted_total",
			Help: "Expired jobs cleaned up by the sweeper.",
		}),
		SweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videosplit_sweep_errors_total",
			Help: "Sweeper deletion attempts that failed and will be retried.",
		}),
		RateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "videosplit_rate_limit_rejected_total",
			Help: "Requests rejected by the per-plan rate limiter.",
		}, []string{"operation"}),
		QuotaRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "videosplit_quota_rejected_total",
			Help: "Split requests rejected for exceeding the monthly plan limit.",
		}),
	}

	reg.MustRegister(
		m.JobsCompleted, m.JobsFailed, m.ProcessingSeconds,
		m.SweepDeleted, m.SweepErrors, m.RateLimitRejected, m.QuotaRejected,
	)
	return m
}

// NewUnregistered returns metrics backed by a private registry (tests).
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
