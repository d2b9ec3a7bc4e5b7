// Package metrics exposes the Prometheus collectors of the triage service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmednasr/bug-triage/internal/service"
)

const namespace = "triage"

// Metrics owns a private registry so tests can create independent instances.
type Metrics struct {
	registry          *prometheus.Registry
	predictions       *prometheus.CounterVec
	ticketingOutcomes *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
	inferenceFailures prometheus.Counter
}

// New registers the triage collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Triage predictions by gating action.",
		}, []string{"action"}),
		ticketingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticketing_outcomes_total",
			Help:      "Ticket executor outcomes by action.",
		}, []string{"action", "outcome"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Embedding plus classifier latency.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}),
		inferenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_failures_total",
			Help:      "Predictions that failed in the embedding or classifier stage.",
		}),
	}
	m.registry.MustRegister(
		m.predictions,
		m.ticketingOutcomes,
		m.inferenceDuration,
		m.inferenceFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Prediction counts one successful prediction.
func (m *Metrics) Prediction(action service.Action) {
	m.predictions.WithLabelValues(action.String()).Inc()
}

// TicketOutcome counts one executor outcome.
func (m *Metrics) TicketOutcome(action service.Action, outcome service.TicketOutcome) {
	m.ticketingOutcomes.WithLabelValues(action.String(), string(outcome)).Inc()
}

// InferenceDuration observes one inference latency.
func (m *Metrics) InferenceDuration(d time.Duration) {
	m.inferenceDuration.Observe(d.Seconds())
}

// InferenceFailure counts one failed inference.
func (m *Metrics) InferenceFailure() {
	m.inferenceFailures.Inc()
}

var _ service.Recorder = (*Metrics)(nil)
