package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_store_operations_total",
			Help: "Total number of snapshot store operations",
		},
		[]string{"operation", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raumwerk_store_operation_duration_seconds",
			Help:    "Snapshot store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	r.StoreProjectsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "raumwerk_store_projects_total",
			Help: "Number of projects persisted in the store",
		},
	)
}
