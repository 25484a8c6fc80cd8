// Package metrics exposes the analyser's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "analyser"

type Metrics struct {
	CacheLookups        *prometheus.CounterVec // result: hit, miss, error
	PipelineRuns        *prometheus.CounterVec // mode, outcome
	StageDuration       *prometheus.HistogramVec
	PersistenceFailures prometheus.Counter
	CoalescedRequests   prometheus.Counter
	ArtifactSweeps      *prometheus.CounterVec // outcome
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which tests use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Fingerprint cache lookups by result.",
		}, []string{"result"}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline executions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage", "outcome"}),
		PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Analysis records that could not be written to the result store.",
		}),
		CoalescedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coalesced_requests_total",
			Help:      "Requests that shared an in-flight pipeline run.",
		}),
		ArtifactSweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_sweeps_total",
			Help:      "Runs of the leftover artifact sweeper by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheLookups,
			m.PipelineRuns,
			m.StageDuration,
			m.PersistenceFailures,
			m.CoalescedRequests,
			m.ArtifactSweeps,
			m.HTTPRequests,
			m.HTTPDuration,
		)
	}
	return m
}

// ObserveStage records one stage execution.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StageDuration.WithLabelValues(stage, outcome).Observe(elapsed.Seconds())
}
