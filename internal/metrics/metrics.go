// Package metrics provides per-run Prometheus metrics for paper-extractor.
//
// Each extraction run owns its own registry; nothing is registered with the
// global default registry, so concurrent runs never share counters.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated during one run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ArtifactsTotal     *prometheus.CounterVec
	ImagesSkippedTotal *prometheus.CounterVec
	DownloadsTotal     *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	RunDurationSeconds prometheus.Gauge
	BatchRowsTotal     *prometheus.CounterVec
}

// New creates a fresh registry and registers all metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.ArtifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_extractor_artifacts_total",
			Help: "Artifacts accepted by the classifier, by kind",
		},
		[]string{"kind"},
	)
	m.ImagesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_extractor_images_skipped_total",
			Help: "Image candidates rejected by the exclusion filter, by reason",
		},
		[]string{"reason"},
	)
	m.DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_extractor_downloads_total",
			Help: "Artifact materializations, by outcome",
		},
		[]string{"outcome"},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_extractor_http_requests_total",
			Help: "Outbound HTTP requests, by target and status code",
		},
		[]string{"target", "code"},
	)
	m.RunDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paper_extractor_run_duration_seconds",
			Help: "Wall-clock duration of the extraction run",
		},
	)
	m.BatchRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_extractor_batch_rows_total",
			Help: "Batch rows processed, by outcome",
		},
		[]string{"outcome"},
	)

	reg.MustRegister(
		m.ArtifactsTotal,
		m.ImagesSkippedTotal,
		m.DownloadsTotal,
		m.HTTPRequestsTotal,
		m.RunDurationSeconds,
		m.BatchRowsTotal,
	)
	return m
}

// Registry exposes the underlying registry as a Gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordArtifacts adds n accepted artifacts of the given kind.
func (m *Metrics) RecordArtifacts(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ArtifactsTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordSkip counts one rejected image candidate.
func (m *Metrics) RecordSkip(reason string) {
	if m == nil {
		return
	}
	m.ImagesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordDownload counts one materialization attempt.
func (m *Metrics) RecordDownload(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.DownloadsTotal.WithLabelValues(outcome).Inc()
}

// RecordRequest counts one outbound request. A code of 0 means the request
// failed before a response arrived.
func (m *Metrics) RecordRequest(target string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.HTTPRequestsTotal.WithLabelValues(target, label).Inc()
}

// RecordBatchRow counts one processed batch row.
func (m *Metrics) RecordBatchRow(outcome string) {
	if m == nil {
		return
	}
	m.BatchRowsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records the duration of a run that started at start.
func (m *Metrics) ObserveRun(start time.Time) {
	if m == nil {
		return
	}
	m.RunDurationSeconds.Set(time.Since(start).Seconds())
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
