package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics exposes counters/histograms for the verdict pipeline.
type AnalysisMetrics struct {
	analysesTotal      *prometheus.CounterVec
	injectionsTotal    prometheus.Counter
	maliciousURLsTotal *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
	tasksDroppedTotal  *prometheus.CounterVec
	analysisLatency    *prometheus.HistogramVec
	mediaJobsTotal     *prometheus.CounterVec
}

func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total analysis requests by verdict and cache outcome",
		}, []string{"verdict", "cache"}),
		injectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "analysis",
			Name:      "injections_detected_total",
			Help:      "Total submissions with prompt injection patterns",
		}),
		maliciousURLsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "reputation",
			Name:      "malicious_urls_total",
			Help:      "Total URLs flagged malicious by source",
		}, []string{"source"}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Total requests denied by rate limiting, by tier",
		}, []string{"tier"}),
		tasksDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "worker",
			Name:      "tasks_dropped_total",
			Help:      "Background tasks dropped because the queue was full",
		}, []string{"task"}),
		analysisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scamshield",
			Subsystem: "analysis",
			Name:      "latency_seconds",
			Help:      "End-to-end analysis latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
		mediaJobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scamshield",
			Subsystem: "media",
			Name:      "jobs_total",
			Help:      "Media jobs by terminal status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.analysesTotal,
		m.injectionsTotal,
		m.maliciousURLsTotal,
		m.rateLimitedTotal,
		m.tasksDroppedTotal,
		m.analysisLatency,
		m.mediaJobsTotal,
	)
	return m
}

func (m *AnalysisMetrics) ObserveAnalysis(verdict string, cacheHit bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.analysesTotal.WithLabelValues(verdict, cache).Inc()
	m.analysisLatency.WithLabelValues(cache).Observe(elapsed.Seconds())
}

func (m *AnalysisMetrics) ObserveInjection() {
	if m == nil {
		return
	}
	m.injectionsTotal.Inc()
}

func (m *AnalysisMetrics) ObserveMaliciousURL(source string) {
	if m == nil {
		return
	}
	m.maliciousURLsTotal.WithLabelValues(source).Inc()
}

func (m *AnalysisMetrics) ObserveRateLimited(tier string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(tier).Inc()
}

func (m *AnalysisMetrics) ObserveTaskDropped(task string) {
	if m == nil {
		return
	}
	m.tasksDroppedTotal.WithLabelValues(task).Inc()
}

func (m *AnalysisMetrics) ObserveMediaJob(status string) {
	if m == nil {
		return
	}
	m.mediaJobsTotal.WithLabelValues(status).Inc()
}
