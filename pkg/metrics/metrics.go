package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hauler"

// Metrics groups the business counters exposed on /metrics. A nil *Metrics is a no-op.
type Metrics struct {
	cartOutcomes       *prometheus.CounterVec
	checkoutPartitions *prometheus.CounterVec
	checkoutDuration   *prometheus.HistogramVec
	orderTransitions   *prometheus.CounterVec
	outboxPublished    *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	sweepRuns          *prometheus.CounterVec
	sweepRows          *prometheus.CounterVec
}

// New registers the collectors on reg. A nil registerer yields an inert instance.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		cartOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_outcomes_total",
			Help:      "Cart mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		checkoutPartitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_partitions_total",
			Help:      "Per-supplier checkout partitions by result.",
		}, []string{"status"}),
		checkoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_seconds",
			Help:      "Wall time of checkout requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Applied order status transitions.",
		}, []string{"from", "to"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox publish attempts by event type and result.",
		}, []string{"event_type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Retention sweep job runs by job and result.",
		}, []string{"job", "result"}),
		sweepRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_rows_deleted_total",
			Help:      "Rows removed by retention sweep jobs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.cartOutcomes, m.checkoutPartitions, m.checkoutDuration, m.orderTransitions, m.outboxPublished,
		m.httpRequests, m.httpDuration, m.sweepRuns, m.sweepRows)
	return m
}

func (m *Metrics) IncCartOutcome(operation, outcome string) {
	if m == nil || m.cartOutcomes == nil {
		return
	}
	m.cartOutcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncCheckoutPartition(status string) {
	if m == nil || m.checkoutPartitions == nil {
		return
	}
	m.checkoutPartitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) ObserveCheckout(result string, d time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

func (m *Metrics) IncOrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *Metrics) IncOutboxPublish(eventType, result string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, normalizeLabel(route), status).Inc()
	m.httpDuration.WithLabelValues(method, normalizeLabel(route)).Observe(d.Seconds())
}

// ObserveSweep records one sweep job run and the rows it removed.
func (m *Metrics) ObserveSweep(job, result string, deleted int64) {
	if m == nil || m.sweepRuns == nil {
		return
	}
	m.sweepRuns.WithLabelValues(normalizeLabel(job), normalizeLabel(result)).Inc()
	if deleted > 0 {
		m.sweepRows.WithLabelValues(normalizeLabel(job)).Add(float64(deleted))
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
