package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_analyses_total",
			Help: "Total number of analysis runs",
		},
		[]string{"analysis", "status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raumwerk_analysis_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"analysis"},
	)

	r.AnalysisSpaces = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raumwerk_analysis_spaces",
			Help:    "Number of spaces covered per analysis run",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000},
		},
		[]string{"analysis"},
	)

	r.FindingsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_findings_total",
			Help: "Total number of check findings by severity",
		},
		[]string{"severity"},
	)

	r.HazardousSpaces = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "raumwerk_hazardous_spaces",
			Help: "Number of spaces with an Ex-zone in the last classification",
		},
	)

	r.FireCompartments = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "raumwerk_fire_compartments",
			Help: "Number of fire compartments in the last classification",
		},
	)

	r.IncompleteEntities = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "raumwerk_incomplete_entities_total",
			Help: "Entities skipped by analyses for missing data",
		},
		[]string{"analysis"},
	)
}
