package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
)

// serverMetrics holds the Prometheus metrics owned by the server. Tests pass
// a fresh registry so they do not touch the global one.
type serverMetrics struct {
	// askTotal counts answered questions by outcome: answered, unclear,
	// no_policy or error.
	askTotal *prometheus.CounterVec

	askDuration *prometheus.HistogramVec

	// askConfidence records retrieval confidence for questions that reached
	// the index.
	askConfidence prometheus.Histogram

	chatConnections prometheus.Gauge
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		askTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policybot",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Questions handled, partitioned by outcome.",
		}, []string{"outcome"}),

		askDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "policybot",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Time to answer a question.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),

		askConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "policybot",
			Subsystem: "ask",
			Name:      "confidence",
			Help:      "Retrieval confidence of the nearest passage.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),

		chatConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "policybot",
			Subsystem: "chat",
			Name:      "active_connections",
			Help:      "Open WebSocket chat connections.",
		}),
	}
}

func (m *serverMetrics) observe(ans *assistant.Answer, elapsed time.Duration) {
	outcome := string(ans.Outcome)
	m.askTotal.WithLabelValues(outcome).Inc()
	m.askDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if ans.Confidence > 0 {
		m.askConfidence.Observe(ans.Confidence)
	}
}
