package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "voya"

// Metrics holds process-wide counters. A nil *Metrics is a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	itineraries         prometheus.Counter
	providerFailures    *prometheus.CounterVec
	chainFailures       prometheus.Counter
	persistenceFailures prometheus.Counter
	searches            *prometheus.CounterVec
	searchFailures      *prometheus.CounterVec
}

// NewMetrics registers the counters on reg. A nil reg gets a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		itineraries: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "itineraries_generated_total",
			Help:      "Itineraries returned by an AI provider.",
		}),
		providerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_failures_total",
			Help:      "Failed AI provider attempts.",
		}, []string{"provider"}),
		chainFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chain_failures_total",
			Help:      "Generate requests where every provider failed.",
		}),
		persistenceFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persistence_failures_total",
			Help:      "Itineraries that could not be saved.",
		}),
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "searches_total",
			Help:      "SerpAPI calls made.",
		}, []string{"op"}),
		searchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "search_failures_total",
			Help:      "SerpAPI calls that failed.",
		}, []string{"op"}),
	}
}

func (m *Metrics) IncItineraries() {
	if m != nil {
		m.itineraries.Inc()
	}
}

func (m *Metrics) IncProviderFailures(provider string) {
	if m != nil {
		m.providerFailures.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) IncChainFailures() {
	if m != nil {
		m.chainFailures.Inc()
	}
}

func (m *Metrics) IncPersistenceFailures() {
	if m != nil {
		m.persistenceFailures.Inc()
	}
}

func (m *Metrics) IncSearches(op string) {
	if m != nil {
		m.searches.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncSearchFailures(op string) {
	if m != nil {
		m.searchFailures.WithLabelValues(op).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
