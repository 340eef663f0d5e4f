package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QCMetrics counts QC workflow transitions by outcome.
type QCMetrics struct {
	transitions *prometheus.CounterVec
}

// NewQCMetrics registers the QC metrics on the provided registerer.
func NewQCMetrics(reg prometheus.Registerer) *QCMetrics {
	if reg == nil {
		return &QCMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_transitions_total",
		Help: "Asset workflow transitions by name and result.",
	}, []string{"transition", "result"})
	reg.MustRegister(transitions)
	return &QCMetrics{transitions: transitions}
}

// IncTransition increments the counter for a transition outcome.
func (m *QCMetrics) IncTransition(transition, result string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition), normalizeLabel(result)).Inc()
}

// JobMetrics records duration and outcome of a periodic job.
type JobMetrics struct {
	duration prometheus.Histogram
	success  prometheus.Counter
	failure  prometheus.Counter
}

// NewJobMetrics registers <name>_job_duration_seconds, <name>_job_success_total
// and <name>_job_failure_total on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer, name string) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	name = normalizeLabel(name)
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name + "_job_duration_seconds",
		Help:    "Duration of " + name + " job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: name + "_job_success_total",
		Help: "Successful " + name + " job runs.",
	})
	failure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: name + "_job_failure_total",
		Help: "Failed " + name + " job runs.",
	})
	reg.MustRegister(duration, success, failure)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveRun records one job run.
func (j *JobMetrics) ObserveRun(duration time.Duration, err error) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.Observe(duration.Seconds())
	if err != nil {
		j.failure.Inc()
		return
	}
	j.success.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
