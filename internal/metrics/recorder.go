// Package metrics exposes classification counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/mikey/phishguard/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phishguard"

// Recorder counts verdicts, model outcomes and external lookups
type Recorder struct {
	registry *prometheus.Registry
	verdicts *prometheus.CounterVec
	models   *prometheus.CounterVec
	lookups  *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of classified inputs",
		}, []string{"route", "label"}),
		models: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_status_total",
			Help:      "Classifier availability per classified input",
		}, []string{"route", "status"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "External lookups by kind and outcome",
		}, []string{"kind", "status"}),
	}

	r.registry.MustRegister(r.verdicts, r.models, r.lookups)
	return r
}

// ObserveVerdict counts a classified input
func (r *Recorder) ObserveVerdict(route string, label core.Label) {
	r.verdicts.WithLabelValues(route, string(label)).Inc()
}

// ObserveModel counts whether the classifier contributed
func (r *Recorder) ObserveModel(route string, status core.ModelStatus) {
	r.models.WithLabelValues(route, string(status)).Inc()
}

// ObserveLookup counts a WHOIS or HTTP lookup outcome
func (r *Recorder) ObserveLookup(kind string, status core.LookupStatus) {
	r.lookups.WithLabelValues(kind, string(status)).Inc()
}

// Registry returns the registry holding the counters
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the counters in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
