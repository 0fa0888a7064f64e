package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the response body size of a request
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight increments the in-flight request gauge
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight request gauge
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordAnalysis records one analysis run over a snapshot
func (r *Registry) RecordAnalysis(analysis, status string, duration time.Duration, spaces int) {
	r.AnalysesTotal.WithLabelValues(analysis, status).Inc()
	r.AnalysisDuration.WithLabelValues(analysis).Observe(duration.Seconds())
	r.AnalysisSpaces.WithLabelValues(analysis).Observe(float64(spaces))
}

// RecordFindings records check findings by severity
func (r *Registry) RecordFindings(errors, warnings, infos int) {
	r.FindingsTotal.WithLabelValues("error").Add(float64(errors))
	r.FindingsTotal.WithLabelValues("warning").Add(float64(warnings))
	r.FindingsTotal.WithLabelValues("info").Add(float64(infos))
}

// RecordImport records a model import
func (r *Registry) RecordImport(status string, duration time.Duration) {
	r.ImportsTotal.WithLabelValues(status).Inc()
	r.ImportDuration.Observe(duration.Seconds())
}

// RecordStoreOperation records a snapshot store operation
func (r *Registry) RecordStoreOperation(operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateClassificationMetrics updates the gauges set by the latest
// classification run
func (r *Registry) UpdateClassificationMetrics(hazardousSpaces, fireCompartments int) {
	r.HazardousSpaces.Set(float64(hazardousSpaces))
	r.FireCompartments.Set(float64(fireCompartments))
}
