// Package metric provides Prometheus-based observability for telestate.
//
// Core registry metrics (listener counts, dispatch volume, delivery
// failures, replay activity) live on the Metrics struct and are registered
// once per process through MetricsRegistry. Transports register their own
// metrics through the same registry under their component name.
package metric
