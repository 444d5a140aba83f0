// Package metrics exposes prometheus collectors for the facade's
// operation counts and the translation table's size, the ambient
// observability stack the teacher repo carries via
// github.com/prometheus/client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors registered for one facade instance.
type Metrics struct {
	Operations      *prometheus.CounterVec
	BackingReads    prometheus.Counter
	TranslationRows prometheus.Gauge
	VirtualDirs     prometheus.Gauge
	HandleCacheSize prometheus.Gauge
}

// New creates and registers a fresh set of collectors against registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xlatefs_facade_operations_total",
			Help: "Count of filesystem facade operations by name.",
		}, []string{"op"}),
		BackingReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xlatefs_backing_reads_total",
			Help: "Count of reads served from backing files.",
		}),
		TranslationRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xlatefs_translation_rows",
			Help: "Number of rows currently in the translation table.",
		}),
		VirtualDirs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xlatefs_virtual_directories",
			Help: "Number of synthesized virtual directories.",
		}),
		HandleCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xlatefs_handle_cache_size",
			Help: "Number of open backing-file handles currently cached.",
		}),
	}
	registry.MustRegister(m.Operations, m.BackingReads, m.TranslationRows, m.VirtualDirs, m.HandleCacheSize)
	return m
}
