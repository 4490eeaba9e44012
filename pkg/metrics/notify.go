package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotifyMetrics records webhook dispatch outcomes for the order
// notification pipeline.
type NotifyMetrics struct {
	duration  *prometheus.HistogramVec
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	exhausted prometheus.Counter
	pending   prometheus.Gauge
}

// NewNotifyMetrics registers the notification metrics on the provided registerer.
func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	if reg == nil {
		return &NotifyMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notify_dispatch_duration_seconds",
		Help:    "Duration of webhook dispatch attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_delivered_total",
		Help: "Successfully delivered order notifications.",
	}, []string{"mode"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_failed_total",
		Help: "Failed webhook dispatch attempts.",
	}, []string{"mode"})
	exhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_attempts_exhausted_total",
		Help: "Outbox rows abandoned after reaching the attempt cap.",
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notify_outbox_pending",
		Help: "Outbox rows awaiting delivery at the last sweep.",
	})
	reg.MustRegister(duration, delivered, failed, exhausted, pending)
	return &NotifyMetrics{
		duration:  duration,
		delivered: delivered,
		failed:    failed,
		exhausted: exhausted,
		pending:   pending,
	}
}

// ObserveDispatch records the duration of one dispatch attempt.
func (n *NotifyMetrics) ObserveDispatch(mode string, duration time.Duration) {
	if n == nil || n.duration == nil {
		return
	}
	n.duration.WithLabelValues(normalizeLabel(mode)).Observe(duration.Seconds())
}

// IncDelivered increments the delivered counter.
func (n *NotifyMetrics) IncDelivered(mode string) {
	if n == nil || n.delivered == nil {
		return
	}
	n.delivered.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncFailed increments the failure counter.
func (n *NotifyMetrics) IncFailed(mode string) {
	if n == nil || n.failed == nil {
		return
	}
	n.failed.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncExhausted increments the attempt-cap counter.
func (n *NotifyMetrics) IncExhausted() {
	if n == nil || n.exhausted == nil {
		return
	}
	n.exhausted.Inc()
}

// SetPending records the outbox backlog observed by the sweeper.
func (n *NotifyMetrics) SetPending(count int) {
	if n == nil || n.pending == nil {
		return
	}
	n.pending.Set(float64(count))
}

func normalizeLabel(mode string) string {
	if mode == "" {
		return "unknown"
	}
	return mode
}
