// Package telemetry wires OpenTelemetry tracing and Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the docrouter collectors. All names are prefixed with "docrouter_".
//
//   - docrouter_documents_routed_total{format,intent,handler}
//   - docrouter_handler_results_total{handler,status}
//   - docrouter_generator_calls_total{outcome}
//   - docrouter_generator_duration_seconds{outcome}
type Metrics struct {
	DocumentsRouted   *prometheus.CounterVec
	HandlerResults    *prometheus.CounterVec
	GeneratorCalls    *prometheus.CounterVec
	GeneratorDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. Pass a fresh registry per process (or test).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsRouted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docrouter_documents_routed_total",
				Help: "Documents dispatched, by detected format, intent and selected handler",
			},
			[]string{"format", "intent", "handler"},
		),
		HandlerResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docrouter_handler_results_total",
				Help: "Handler results by status (ok or error)",
			},
			[]string{"handler", "status"},
		),
		GeneratorCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docrouter_generator_calls_total",
				Help: "Text generator calls by outcome",
			},
			[]string{"outcome"},
		),
		GeneratorDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docrouter_generator_duration_seconds",
				Help:    "Text generator call latency",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
	}
}

// ObserveGeneration implements llm.Observer.
func (m *Metrics) ObserveGeneration(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GeneratorCalls.WithLabelValues(outcome).Inc()
	m.GeneratorDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveRouted counts one dispatched document.
func (m *Metrics) ObserveRouted(format, intent, handler string) {
	if m == nil {
		return
	}
	m.DocumentsRouted.WithLabelValues(format, intent, handler).Inc()
}

// ObserveResult counts one handler outcome.
func (m *Metrics) ObserveResult(handler string, isError bool) {
	if m == nil {
		return
	}
	status := "ok"
	if isError {
		status = "error"
	}
	m.HandlerResults.WithLabelValues(handler, status).Inc()
}
