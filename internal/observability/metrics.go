package observability

import (
	"net/http"
	"time"

	"github.com/antoniostano/tripgenie/internal/reliability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collaborator names used as metric labels and latency window series.
const (
	CollaboratorResolver  = "resolver"
	CollaboratorGeocoder  = "geocoder"
	CollaboratorPlaces    = "places"
	CollaboratorItinerary = "itinerary"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ActiveSessions      prometheus.Gauge
	SessionEvents       *prometheus.CounterVec
	RoutedEvents        *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	Replies             *prometheus.CounterVec
	WSMessages          *prometheus.CounterVec
	CollaboratorErrors  *prometheus.CounterVec
	CollaboratorLatency *prometheus.HistogramVec

	window *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live dialogue sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		RoutedEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routed_events_total",
			Help:      "Inbound events by stage and input kind.",
		}, []string{"stage", "kind"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Dialogue stage transitions.",
		}, []string{"from", "to"}),
		Replies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies by outcome.",
		}, []string{"outcome"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Collaborator failures by collaborator and class.",
		}, []string{"collaborator", "code"}),
		CollaboratorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_latency_ms",
			Help:      "Collaborator call latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 20000},
		}, []string{"collaborator"}),
		window: newLatencyWindow(256),
	}
}

func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) RoutedEvent(stage, kind string) {
	if m == nil {
		return
	}
	m.RoutedEvents.WithLabelValues(stage, kind).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// Reply counts a reply outcome and mirrors it into the latency window.
func (m *Metrics) Reply(outcome string) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(outcome).Inc()
	m.window.ObserveOutcome(outcome)
}

func (m *Metrics) WSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// ObserveCollaborator records one collaborator call. err may be nil.
func (m *Metrics) ObserveCollaborator(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	ms := float64(d.Microseconds()) / 1000
	m.CollaboratorLatency.WithLabelValues(name).Observe(ms)
	m.window.Observe(name, ms)
	if err != nil {
		m.CollaboratorError(name, err)
	}
}

func (m *Metrics) CollaboratorError(name string, err error) {
	if m == nil || err == nil {
		return
	}
	m.CollaboratorErrors.WithLabelValues(name, reliability.Classify(err)).Inc()
}

// ObserveRoute records the end-to-end handling time of one event.
func (m *Metrics) ObserveRoute(d time.Duration) {
	if m == nil {
		return
	}
	m.window.Observe("route_total", float64(d.Microseconds())/1000)
}

func (m *Metrics) LatencySnapshot() LatencySnapshot {
	if m == nil {
		return newLatencyWindow(0).Snapshot()
	}
	return m.window.Snapshot()
}

func (m *Metrics) ResetLatency() {
	if m == nil {
		return
	}
	m.window.Reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
