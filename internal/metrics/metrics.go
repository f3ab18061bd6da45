// Package metrics exposes the controller's counters on a dedicated
// registry served at /metrics when a listen address is configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Transitions     *prometheus.CounterVec
	AdapterFailures *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PrivacyEnabled  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "privacy_transitions_total",
		Help: "Confirmed privacy transitions by camera and reason.",
	}, []string{"camera", "reason"})

	m.AdapterFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "privacy_adapter_failures_total",
		Help: "Remote adapter call failures by camera and operation.",
	}, []string{"camera", "op"})

	m.PersistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "privacy_persist_failures_total",
		Help: "State store write failures by camera.",
	}, []string{"camera"})

	m.PrivacyEnabled = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "privacy_enabled",
		Help: "1 when privacy is enabled for the camera, 0 otherwise.",
	}, []string{"camera"})

	m.registry.MustRegister(m.Transitions, m.AdapterFailures, m.PersistFailures, m.PrivacyEnabled)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
