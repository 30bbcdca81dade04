package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// CronJobMetrics tracks maintenance job runs. A nil value is a no-op.
type CronJobMetrics struct {
	duration      *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	lastCompleted *prometheus.GaugeVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stn_cron_job_duration_seconds",
			Help:    "Duration of cron jobs in seconds.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stn_cron_job_runs_total",
			Help: "Cron job executions by outcome.",
		}, []string{"job", "outcome"}),
		lastCompleted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stn_cron_job_last_success_timestamp_seconds",
			Help: "Start time of the last successful run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastCompleted)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) { c.incRun(job, outcomeSuccess) }

func (c *CronJobMetrics) IncFailure(job string) { c.incRun(job, outcomeFailure) }

func (c *CronJobMetrics) incRun(job, outcome string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

// MarkCompleted records when the last successful run started, for staleness alerts.
func (c *CronJobMetrics) MarkCompleted(job string, startedAt time.Time) {
	if c == nil || c.lastCompleted == nil {
		return
	}
	c.lastCompleted.WithLabelValues(normalizeLabel(job)).Set(float64(startedAt.Unix()))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
