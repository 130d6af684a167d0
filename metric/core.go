package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics for the registry core and its
// transports.
type Metrics struct {
	// Registry metrics
	ListenersActive   *prometheus.GaugeVec
	EventsDispatched  *prometheus.CounterVec
	DeliveryFailures  *prometheus.CounterVec
	ListenersRemoved  *prometheus.CounterVec
	ReplayEvents      *prometheus.CounterVec
	NotifyDropped     *prometheus.CounterVec
	DispatchDuration  *prometheus.HistogramVec
	DefaultSubChanges prometheus.Counter

	// Gateway metrics
	GatewayConnections prometheus.Gauge
	GatewayMessages    *prometheus.CounterVec

	// NATS bridge metrics
	NATSConnected  prometheus.Gauge
	NATSPublished  *prometheus.CounterVec
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ListenersActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "listeners_active",
				Help:      "Number of registered listeners by listener kind",
			},
			[]string{"kind"},
		),

		EventsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "events_dispatched_total",
				Help:      "Total events delivered to listeners by event kind",
			},
			[]string{"event"},
		),

		DeliveryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "delivery_failures_total",
				Help:      "Total failed deliveries by event kind",
			},
			[]string{"event"},
		),

		ListenersRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "listeners_removed_total",
				Help:      "Total listener removals by reason",
			},
			[]string{"reason"},
		),

		ReplayEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "replay_events_total",
				Help:      "Total cached events replayed to new listeners by event kind",
			},
			[]string{"event"},
		),

		NotifyDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "notify_dropped_total",
				Help:      "Total producer updates dropped before dispatch by reason",
			},
			[]string{"operation", "reason"},
		),

		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent fanning out one update to all matching listeners",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		DefaultSubChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "registry",
				Name:      "default_subscription_changes_total",
				Help:      "Total default subscription changes processed",
			},
		),

		GatewayConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "telestate",
				Subsystem: "gateway",
				Name:      "connections",
				Help:      "Number of active WebSocket listener connections",
			},
		),

		GatewayMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "gateway",
				Name:      "messages_total",
				Help:      "Total gateway messages by direction and type",
			},
			[]string{"direction", "type"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "telestate",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "nats",
				Name:      "published_total",
				Help:      "Total legacy broadcasts published by subject",
			},
			[]string{"subject"},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "telestate",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordListenerCount updates the active listener gauge for a listener kind
func (c *Metrics) RecordListenerCount(kind string, count int) {
	c.ListenersActive.WithLabelValues(kind).Set(float64(count))
}

// RecordDispatch increments the dispatched event counter
func (c *Metrics) RecordDispatch(event string) {
	c.EventsDispatched.WithLabelValues(event).Inc()
}

// RecordDeliveryFailure increments the failed delivery counter
func (c *Metrics) RecordDeliveryFailure(event string) {
	c.DeliveryFailures.WithLabelValues(event).Inc()
}

// RecordListenerRemoved increments the removal counter
func (c *Metrics) RecordListenerRemoved(reason string) {
	c.ListenersRemoved.WithLabelValues(reason).Inc()
}

// RecordReplay increments the replay counter
func (c *Metrics) RecordReplay(event string) {
	c.ReplayEvents.WithLabelValues(event).Inc()
}

// RecordNotifyDropped increments the dropped-update counter
func (c *Metrics) RecordNotifyDropped(operation, reason string) {
	c.NotifyDropped.WithLabelValues(operation, reason).Inc()
}

// RecordDispatchDuration records one fan-out pass duration
func (c *Metrics) RecordDispatchDuration(operation string, duration time.Duration) {
	c.DispatchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDefaultSubChange increments the default subscription change counter
func (c *Metrics) RecordDefaultSubChange() {
	c.DefaultSubChanges.Inc()
}

// RecordGatewayConnections updates the gateway connection gauge
func (c *Metrics) RecordGatewayConnections(count int) {
	c.GatewayConnections.Set(float64(count))
}

// RecordGatewayMessage increments the gateway message counter
func (c *Metrics) RecordGatewayMessage(direction, messageType string) {
	c.GatewayMessages.WithLabelValues(direction, messageType).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSPublished increments the legacy broadcast counter
func (c *Metrics) RecordNATSPublished(subject string) {
	c.NATSPublished.WithLabelValues(subject).Inc()
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
