// Package metrics holds the prometheus collectors for the client and the dispatcher.
// All methods are safe on a nil *Metrics so components can run without metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "simplexbot"

// Request outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Metrics contains the collectors exported by the bot.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	PendingRequests prometheus.Gauge
	EventsRouted    *prometheus.CounterVec
	ChatMessages    *prometheus.CounterVec
	Dispatches      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Commands sent to the chat daemon, by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Time from sending a command to receiving its response",
				Buckets:   prometheus.DefBuckets,
			},
		),
		PendingRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "pending_requests",
				Help:      "Commands waiting for a response",
			},
		),
		EventsRouted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "events_routed_total",
				Help:      "Inbound frames by destination (waiter or queue)",
			},
			[]string{"route"},
		),
		ChatMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "messages_total",
				Help:      "Chat items seen by the normalizer, by result",
			},
			[]string{"result"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "commands",
				Name:      "dispatches_total",
				Help:      "Chat messages handled by the command dispatcher, by outcome",
			},
			[]string{"outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Requests,
			m.RequestDuration,
			m.PendingRequests,
			m.EventsRouted,
			m.ChatMessages,
			m.Dispatches,
		)
	}
	return m
}

// ObserveRequest records one finished command.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(d.Seconds())
}

// RequestStarted increments the pending gauge.
func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.PendingRequests.Inc()
}

// RequestFinished decrements the pending gauge.
func (m *Metrics) RequestFinished() {
	if m == nil {
		return
	}
	m.PendingRequests.Dec()
}

// EventRouted counts one inbound frame delivered to route.
func (m *Metrics) EventRouted(route string) {
	if m == nil {
		return
	}
	m.EventsRouted.WithLabelValues(route).Inc()
}

// ChatMessage counts one chat item with the given result.
func (m *Metrics) ChatMessage(result string) {
	if m == nil {
		return
	}
	m.ChatMessages.WithLabelValues(result).Inc()
}

// Dispatch counts one dispatcher outcome.
func (m *Metrics) Dispatch(outcome string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(outcome).Inc()
}
