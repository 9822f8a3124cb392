// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes recorded by the backend client.
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeParseError     = "parse_error"
)

// Backend tracks calls to the records backend.
type Backend struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewBackend creates the backend collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewBackend(reg prometheus.Registerer) *Backend {
	b := &Backend{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarhub_backend_requests_total",
			Help: "Requests sent to the records backend by resource and outcome.",
		}, []string{"resource", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scholarhub_backend_request_duration_seconds",
			Help:    "Latency of records backend requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
	}
	if reg != nil {
		reg.MustRegister(b.Requests, b.Duration)
	}
	return b
}

// Chat tracks chat relay activity.
type Chat struct {
	Sessions   prometheus.Gauge
	Reconnects prometheus.Counter
	Messages   *prometheus.CounterVec
}

// NewChat creates the chat collectors and registers them with reg.
func NewChat(reg prometheus.Registerer) *Chat {
	c := &Chat{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scholarhub_chat_sessions",
			Help: "Browser chat sockets currently open.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scholarhub_chat_reconnects_total",
			Help: "Reconnect attempts to the chatbot backend.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarhub_chat_messages_total",
			Help: "Chat messages relayed by sender.",
		}, []string{"sender"}),
	}
	if reg != nil {
		reg.MustRegister(c.Sessions, c.Reconnects, c.Messages)
	}
	return c
}
