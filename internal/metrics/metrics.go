// Package metrics exposes Prometheus instrumentation for the engine. The
// collectors are package-level and registered once; the HTTP server mounts
// promhttp for scraping.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flashd_operations_total",
		Help: "Engine entry-point invocations by operation and result",
	}, []string{"op", "result"})

	Aborts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flashd_aborts_total",
		Help: "Aborted atomic units by error kind",
	}, []string{"kind"})

	Paused = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flashd_paused",
		Help: "1 while the circuit breaker is engaged",
	})

	Events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flashd_events_total",
		Help: "Observable events appended to the event log",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		Operations,
		Aborts,
		Paused,
		Events,
	)
}
