// Package metrics defines the Prometheus collectors exported by the
// engine.
//
// Collectors are registered against a caller-supplied registerer so tests
// and embedded uses can keep separate registries. All operations are safe
// for concurrent use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quantumnat"

// Metrics holds every collector.
type Metrics struct {
	// NoiseApplications counts injected error channels.
	// Labels: channel (depolarizing, amplitude_damping, phase_damping, readout)
	NoiseApplications *prometheus.CounterVec

	// BackendJobs counts finished backend jobs.
	// Labels: backend, status (completed, failed, cancelled)
	BackendJobs *prometheus.CounterVec

	// BackendJobDuration measures submit-to-result latency.
	// Labels: backend
	BackendJobDuration *prometheus.HistogramVec

	// BackendRetries counts retried submissions and polls.
	// Labels: backend
	BackendRetries *prometheus.CounterVec

	// NumericWarnings counts norm-drift warnings.
	NumericWarnings prometheus.Counter
}

// New creates and registers all collectors on reg. A nil reg uses a
// private registry, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		NoiseApplications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "noise",
			Name:      "applications_total",
			Help:      "Number of noise channel applications by channel.",
		}, []string{"channel"}),

		BackendJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "jobs_total",
			Help:      "Backend jobs by backend and final status.",
		}, []string{"backend", "status"}),

		BackendJobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "job_duration_seconds",
			Help:      "Time from submission to result.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"backend"}),

		BackendRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "retries_total",
			Help:      "Retried backend calls.",
		}, []string{"backend"}),

		NumericWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "numeric_warnings_total",
			Help:      "State vector norm drift warnings.",
		}),
	}
}
