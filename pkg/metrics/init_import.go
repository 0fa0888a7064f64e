package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initImportMetrics() {
	r.ImportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_imports_total",
			Help: "Total number of model imports",
		},
		[]string{"status"},
	)

	r.ImportDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raumwerk_import_duration_seconds",
			Help:    "Model import duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.ImportEntitiesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_import_entities_total",
			Help: "Entities accepted during import by kind",
		},
		[]string{"kind"},
	)

	r.ImportRejectionTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_import_rejections_total",
			Help: "Entities rejected during import by reason",
		},
		[]string{"reason"},
	)
}
