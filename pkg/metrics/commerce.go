package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records counters for the payment and delivery pipeline.
type CommerceMetrics struct {
	webhookEvents    *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	creditsApplied   prometheus.Counter
}

// NewCommerceMetrics registers the pipeline metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment webhook events by outcome.",
	}, []string{"outcome"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "item_deliveries_total",
		Help: "Item delivery attempts by outcome.",
	}, []string{"outcome"})
	deliveryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_delivery_duration_seconds",
		Help:    "Duration of full-order delivery runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	creditsApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "referral_credits_applied_total",
		Help: "Referral credits consumed at checkout.",
	})
	reg.MustRegister(webhookEvents, deliveries, deliveryDuration, creditsApplied)
	return &CommerceMetrics{
		webhookEvents:    webhookEvents,
		deliveries:       deliveries,
		deliveryDuration: deliveryDuration,
		creditsApplied:   creditsApplied,
	}
}

// IncWebhook increments the webhook counter for the given outcome.
func (m *CommerceMetrics) IncWebhook(outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDelivery increments the delivery counter for the given outcome.
func (m *CommerceMetrics) IncDelivery(outcome string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveDeliveryDuration records how long a delivery run took.
func (m *CommerceMetrics) ObserveDeliveryDuration(kind string, duration time.Duration) {
	if m == nil || m.deliveryDuration == nil {
		return
	}
	m.deliveryDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncCreditsApplied counts one consumed referral credit.
func (m *CommerceMetrics) IncCreditsApplied() {
	if m == nil || m.creditsApplied == nil {
		return
	}
	m.creditsApplied.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
