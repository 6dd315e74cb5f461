// Package metrics exposes Prometheus collectors for the dispatcher.
package metrics

import (
	"database/sql"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "locod_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	assignmentsCreated *prometheus.CounterVec

	importTotal   *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	importLatency prometheus.Histogram

	lifecycleTransitions *prometheus.CounterVec

	notificationsSent *prometheus.CounterVec

	exportTotal *prometheus.CounterVec
)

// Init registers collectors and, when db is set, DB-backed gauges. Only the
// first call has any effect.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)

		assignmentsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assignments_created_total",
				Help: "Assignments written by source and resulting status",
			},
			[]string{"source", "status"},
		)

		importTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_batches_total",
				Help: "Import batches by result",
			},
			[]string{"result"},
		)
		importRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "Imported rows by outcome",
			},
			[]string{"outcome"},
		)
		importLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "import_duration_seconds",
				Help:    "Import batch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		lifecycleTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "lifecycle_transitions_total",
				Help: "Status changes applied by the lifecycle updater",
			},
			[]string{"transition"},
		)

		notificationsSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Conflict push notifications by result",
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "efficiency_export_total",
				Help: "Efficiency report exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			assignmentsCreated,
			importTotal,
			importRows,
			importLatency,
			lifecycleTransitions,
			notificationsSent,
			exportTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route, method string, code int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
	}
}

// IncAssignment counts a written assignment.
func IncAssignment(source, status string) {
	if assignmentsCreated != nil {
		assignmentsCreated.WithLabelValues(source, status).Inc()
	}
}

// ObserveImport records a finished import batch. A failed batch passes err.
func ObserveImport(imported, conflicts, rejected int, duration time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if importTotal != nil {
		importTotal.WithLabelValues(result).Inc()
	}
	if importLatency != nil {
		importLatency.Observe(duration.Seconds())
	}
	if importRows != nil && err == nil {
		importRows.WithLabelValues("imported").Add(float64(imported))
		importRows.WithLabelValues("conflict").Add(float64(conflicts))
		importRows.WithLabelValues("rejected").Add(float64(rejected))
	}
}

// AddLifecycle counts status changes from one lifecycle pass.
func AddLifecycle(activated, completed, enroute, idled int64) {
	if lifecycleTransitions == nil {
		return
	}
	lifecycleTransitions.WithLabelValues("activated").Add(float64(activated))
	lifecycleTransitions.WithLabelValues("completed").Add(float64(completed))
	lifecycleTransitions.WithLabelValues("enroute").Add(float64(enroute))
	lifecycleTransitions.WithLabelValues("idled").Add(float64(idled))
}

// IncNotification counts one push attempt.
func IncNotification(result string) {
	if result == "" {
		result = "unknown"
	}
	if notificationsSent != nil {
		notificationsSent.WithLabelValues(result).Inc()
	}
}

// IncExport counts one report export.
func IncExport(format string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultExpired = "expired"
)
