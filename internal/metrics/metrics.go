package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ytsync"

// Metrics holds the Prometheus instruments for the relay. Every method is
// safe on a nil receiver so tests can wire components without a registry.
type Metrics struct {
	registry *prometheus.Registry

	eventsIn    *prometheus.CounterVec
	eventsOut   *prometheus.CounterVec
	activeConns prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		eventsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_in_total",
			Help:      "Inbound events received from clients, by event type",
		}, []string{"type"}),

		eventsOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_out_total",
			Help:      "Outbound deliveries dispatched to connections, by event type",
		}, []string{"type"}),

		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of open WebSocket connections",
		}),
	}
}

// RegisterOpenRooms exposes the room count as a gauge evaluated at scrape
// time, so the registry never caches stale membership.
func (m *Metrics) RegisterOpenRooms(count func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_rooms",
		Help:      "Number of rooms with at least one member",
	}, count))
}

func (m *Metrics) EventIn(eventType string) {
	if m == nil {
		return
	}
	m.eventsIn.WithLabelValues(eventType).Inc()
}

func (m *Metrics) EventOut(eventType string) {
	if m == nil {
		return
	}
	m.eventsOut.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
