package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec
	helpScanRunsTotal *prometheus.CounterVec
	helpScanDuration  prometheus.Histogram
	studentsFlagged   prometheus.Counter
	studentsResolved  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		helpScanRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "help_scan_runs_total",
			Help: "Total number of help reconciliation batch runs.",
		}, []string{"outcome"})

		helpScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "help_scan_duration_seconds",
			Help:    "Duration of help reconciliation batch runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		})

		studentsFlagged = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "help_students_flagged_total",
			Help: "Total number of help records created.",
		})

		studentsResolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "help_students_resolved_total",
			Help: "Total number of help records resolved.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			helpScanRunsTotal,
			helpScanDuration,
			studentsFlagged,
			studentsResolved,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// HelpScanRuns exposes the counter for reconciliation batch runs.
func HelpScanRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return helpScanRunsTotal
}

// HelpScanDuration exposes the batch duration histogram.
func HelpScanDuration() prometheus.Histogram {
	RegisterMetrics()
	return helpScanDuration
}

// StudentsFlagged exposes the counter for created help records.
func StudentsFlagged() prometheus.Counter {
	RegisterMetrics()
	return studentsFlagged
}

// StudentsResolved exposes the counter for resolved help records.
func StudentsResolved() prometheus.Counter {
	RegisterMetrics()
	return studentsResolved
}
