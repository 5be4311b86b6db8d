package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the finance API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	storeErrors         *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	transactionsCreated *prometheus.CounterVec
	installmentGroups   prometheus.Counter
	insightsEmitted     *prometheus.CounterVec
	chatIntents         *prometheus.CounterVec
	pointsAwarded       *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry keeps NewMetrics callable
// more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finance_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_store_errors_total",
				Help: "Total errors returned by the data store.",
			},
			[]string{"op"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		transactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_transactions_created_total",
				Help: "Total transactions created, by type and source.",
			},
			[]string{"type", "source"},
		),
		installmentGroups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finance_installment_groups_total",
				Help: "Total installment purchases split.",
			},
		),
		insightsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_insights_emitted_total",
				Help: "Total insights generated, by insight type.",
			},
			[]string{"type"},
		),
		chatIntents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_chat_intents_total",
				Help: "Total chat messages, by matched rule.",
			},
			[]string{"intent"},
		),
		pointsAwarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_points_awarded_total",
				Help: "Total gamification points awarded, by action.",
			},
			[]string{"action"},
		),
		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_job_runs_total",
				Help: "Total scheduled job runs, by job and status.",
			},
			[]string{"job", "status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrTransactionsCreated counts persisted transactions.
func (m *Metrics) IncrTransactionsCreated(txType, source string, n int) {
	m.transactionsCreated.WithLabelValues(txType, source).Add(float64(n))
}

// IncrInstallmentGroup counts one split installment purchase.
func (m *Metrics) IncrInstallmentGroup() {
	m.installmentGroups.Inc()
}

// IncrInsight counts one generated insight.
func (m *Metrics) IncrInsight(insightType string) {
	m.insightsEmitted.WithLabelValues(insightType).Inc()
}

// IncrChatIntent counts one chat message by the rule that answered it.
func (m *Metrics) IncrChatIntent(intent string) {
	m.chatIntents.WithLabelValues(intent).Inc()
}

// AddPoints counts gamification points.
func (m *Metrics) AddPoints(action string, points int) {
	m.pointsAwarded.WithLabelValues(action).Add(float64(points))
}

// IncrJobRun counts a scheduled job execution.
func (m *Metrics) IncrJobRun(job, status string) {
	m.jobRuns.WithLabelValues(job, status).Inc()
}

// CounterValue returns the current value of a counter for the given labels.
// Used by tests and the health endpoint.
func (m *Metrics) CounterValue(name string, labels ...string) float64 {
	var c prometheus.Counter
	switch name {
	case "store_errors":
		c = m.storeErrors.WithLabelValues(labels...)
	case "cache_hits":
		c = m.cacheHits.WithLabelValues(labels...)
	case "cache_misses":
		c = m.cacheMisses.WithLabelValues(labels...)
	case "transactions_created":
		c = m.transactionsCreated.WithLabelValues(labels...)
	case "installment_groups":
		c = m.installmentGroups
	case "insights":
		c = m.insightsEmitted.WithLabelValues(labels...)
	case "chat_intents":
		c = m.chatIntents.WithLabelValues(labels...)
	case "points":
		c = m.pointsAwarded.WithLabelValues(labels...)
	case "job_runs":
		c = m.jobRuns.WithLabelValues(labels...)
	default:
		return 0
	}
	return getCounterValue(c)
}

// getCounterValue extracts the current float64 value of a counter.
func getCounterValue(counter prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
