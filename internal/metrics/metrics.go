// Package metrics exposes relay counters in Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lobby"

type Metrics struct {
	ConnectionsActive prometheus.Gauge
	EventsReceived    *prometheus.CounterVec
	EventsRejected    *prometheus.CounterVec
	FramesSent        prometheus.Counter
	FramesDropped     prometheus.Counter
}

// New registers the relay collectors on reg. rooms reports the number of live
// rooms at scrape time.
func New(reg prometheus.Registerer, rooms func() int) *Metrics {
	m := &Metrics{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Live transport connections.",
		}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Inbound events accepted for processing, by type.",
		}, []string{"type"}),
		EventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Inbound events rejected, by reason.",
		}, []string{"reason"}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Outbound frames queued to connections.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Outbound frames dropped on a full or closed connection.",
		}),
	}

	roomsActive := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Rooms with at least one member.",
	}, func() float64 { return float64(rooms()) })

	reg.MustRegister(
		m.ConnectionsActive,
		m.EventsReceived,
		m.EventsRejected,
		m.FramesSent,
		m.FramesDropped,
		roomsActive,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.ConnectionsActive.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.ConnectionsActive.Dec()
	}
}

func (m *Metrics) EventReceived(eventType string) {
	if m != nil {
		m.EventsReceived.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) EventRejected(reason string) {
	if m != nil {
		m.EventsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) FrameSent() {
	if m != nil {
		m.FramesSent.Inc()
	}
}

func (m *Metrics) FrameDropped() {
	if m != nil {
		m.FramesDropped.Inc()
	}
}
