package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	cronResultSuccess = "success"
	cronResultFailure = "failure"
)

// CronJobMetrics covers the expiry, artwork cleanup and outbox retention
// jobs. All methods are safe on a nil receiver.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	skipped     prometheus.Counter
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Duration of cron jobs in seconds.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Cron job executions by result.",
		}, []string{"job", "result"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cron_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cron_job_cycles_skipped_total",
			Help: "Cycles skipped because another worker held the lock.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess, m.skipped)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(jobLabel(job)).Observe(duration.Seconds())
}

// IncSuccess counts a successful run and stamps its completion time.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(jobLabel(job), cronResultSuccess).Inc()
	c.lastSuccess.WithLabelValues(jobLabel(job)).SetToCurrentTime()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(jobLabel(job), cronResultFailure).Inc()
}

func (c *CronJobMetrics) IncSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
