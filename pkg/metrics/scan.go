package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics tracks scan outcomes by result and resolver strategy.
type ScanMetrics struct {
	results     *prometheus.CounterVec
	duration    prometheus.Histogram
	logFailures prometheus.Counter
	conflicts   prometheus.Counter
}

// NewScanMetrics registers the scan metrics on reg. A nil registerer yields no-op metrics.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		return &ScanMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stn_scan_results_total",
		Help: "Scans processed, by outcome and the resolver strategy that matched.",
	}, []string{"result", "strategy"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stn_scan_duration_seconds",
		Help:    "End-to-end scan handling latency.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	logFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stn_scan_log_failures_total",
		Help: "Scan log rows that could not be written.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stn_scan_conflict_retries_total",
		Help: "Pick-list mutations retried after a concurrent update.",
	})
	reg.MustRegister(results, duration, logFailures, conflicts)
	return &ScanMetrics{
		results:     results,
		duration:    duration,
		logFailures: logFailures,
		conflicts:   conflicts,
	}
}

func (m *ScanMetrics) ObserveScan(result, strategy string, elapsed time.Duration) {
	if m == nil || m.results == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.results.WithLabelValues(normalizeLabel(result), strategy).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *ScanMetrics) IncLogFailure() {
	if m == nil || m.logFailures == nil {
		return
	}
	m.logFailures.Inc()
}

func (m *ScanMetrics) IncConflictRetry() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}
