// Package metrics exposes scan and workbook counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeNoCode    = "no_code"
	OutcomeError     = "error"
)

// Metrics holds the application collectors and the registry they belong to
type Metrics struct {
	registry       *prometheus.Registry
	scans          *prometheus.CounterVec
	mirrorAppended prometheus.Counter
	mirrorFailures prometheus.Counter
	archiveRuns    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, with Go and process collectors attached
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "scans_total",
			Help:      "Scan uploads by outcome.",
		}, []string{"outcome"}),
		mirrorAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "workbook",
			Name:      "rows_appended_total",
			Help:      "Rows appended to the attendance workbook.",
		}),
		mirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "workbook",
			Name:      "failures_total",
			Help:      "Workbook writes that failed after the ledger accepted the scan.",
		}),
		archiveRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "archive",
			Name:      "runs_total",
			Help:      "Workbook archive job runs by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans,
		m.mirrorAppended,
		m.mirrorFailures,
		m.archiveRuns,
	)
	return m
}

// Registry returns the registry backing the handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveScan counts one scan with the given outcome
func (m *Metrics) ObserveScan(outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// ObserveMirrorAppend counts a workbook row write
func (m *Metrics) ObserveMirrorAppend(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.mirrorFailures.Inc()
		return
	}
	m.mirrorAppended.Inc()
}

// ObserveArchive counts one archive job run
func (m *Metrics) ObserveArchive(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.archiveRuns.WithLabelValues(result).Inc()
}
