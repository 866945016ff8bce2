package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authkit "github.com/bookloop/authkit"
	"github.com/bookloop/authkit/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authkit.MetricsSnapshot
	DiagDropped() uint64
}

// Exporter is a prometheus.Collector over a service's metrics snapshot.
// It reads the snapshot on every scrape, so registration is cheap and the
// service keeps no Prometheus state of its own.
type Exporter struct {
	source      metricsSource
	counterDesc map[authkit.MetricID]*prometheus.Desc
	histDesc    map[authkit.MetricID]*prometheus.Desc
	droppedDesc *prometheus.Desc
}

// NewExporter creates a collector reading from the given service.
func NewExporter(service *authkit.Service) *Exporter {
	return NewExporterFromSource(service)
}

// NewExporterFromSource creates a collector from a custom snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	e := &Exporter{
		source:      source,
		counterDesc: make(map[authkit.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histDesc:    make(map[authkit.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		droppedDesc: prometheus.NewDesc(
			"authkit_diag_dropped_total",
			"Diagnostics events dropped under dispatcher backpressure.",
			nil, nil,
		),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counterDesc[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histDesc[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return e
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range e.counterDesc {
		ch <- desc
	}
	for _, desc := range e.histDesc {
		ch <- desc
	}
	ch <- e.droppedDesc
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}
	snapshot := e.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			e.counterDesc[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}

	for _, def := range internaldefs.HistogramDefs {
		raw := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(raw)

		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, bound := range internaldefs.HistogramBounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]

		// The core tracks bucket counts only; a zero sum is the stable
		// stand-in.
		ch <- prometheus.MustNewConstHistogram(e.histDesc[def.ID], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(
		e.droppedDesc,
		prometheus.CounterValue,
		float64(e.source.DiagDropped()),
	)
}

// Handler registers the exporter on a fresh registry and returns a scrape
// handler for it.
func (e *Exporter) Handler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(e)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

var _ prometheus.Collector = (*Exporter)(nil)
