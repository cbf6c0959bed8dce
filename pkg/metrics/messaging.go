package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MessagingMetrics records consumer and outbox publisher activity.
type MessagingMetrics struct {
	duration  *prometheus.HistogramVec
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	skipped   *prometheus.CounterVec
}

// NewMessagingMetrics registers the messaging metrics on the provided registerer.
func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	if reg == nil {
		return &MessagingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "message_handle_duration_seconds",
		Help:    "Duration of message handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"component"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_processed_total",
		Help: "Messages handled successfully.",
	}, []string{"component"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_failed_total",
		Help: "Messages whose handling returned an error.",
	}, []string{"component"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_skipped_total",
		Help: "Messages acked without processing (duplicates, unsupported payloads).",
	}, []string{"component"})
	reg.MustRegister(duration, processed, failed, skipped)
	return &MessagingMetrics{
		duration:  duration,
		processed: processed,
		failed:    failed,
		skipped:   skipped,
	}
}

// ObserveDuration records the handling duration for the named component.
func (m *MessagingMetrics) ObserveDuration(component string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(component)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter for the named component.
func (m *MessagingMetrics) IncProcessed(component string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(component)).Inc()
}

// IncFailed increments the failure counter for the named component.
func (m *MessagingMetrics) IncFailed(component string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(component)).Inc()
}

// IncSkipped increments the skipped counter for the named component.
func (m *MessagingMetrics) IncSkipped(component string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(component)).Inc()
}

func normalizeLabel(component string) string {
	if component == "" {
		return "unknown"
	}
	return component
}
