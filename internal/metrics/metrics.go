package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	records     *prometheus.CounterVec
	defaults    *prometheus.CounterVec
	inference   *prometheus.HistogramVec
	runDuration prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskpad_pipeline_runs_total",
			Help: "Pipeline runs by classification kind and outcome.",
		}, []string{"kind", "outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskpad_records_created_total",
			Help: "Records persisted by the pipeline.",
		}, []string{"type"}),
		defaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskpad_enrichment_defaults_total",
			Help: "Enrichment steps that fell back to their default value.",
		}, []string{"enricher"}),
		inference: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskpad_inference_duration_seconds",
			Help:    "Latency of model calls by operation.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"op", "outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskpad_pipeline_duration_seconds",
			Help:    "End-to-end duration of pipeline runs.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}

	registry.MustRegister(m.runs, m.records, m.defaults, m.inference, m.runDuration)
	return m
}

func (m *Metrics) RunFinished(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordCreated(recordType string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(recordType).Inc()
}

func (m *Metrics) EnrichmentDefaulted(enricher string) {
	if m == nil {
		return
	}
	m.defaults.WithLabelValues(enricher).Inc()
}

func (m *Metrics) ObserveInference(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.inference.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
