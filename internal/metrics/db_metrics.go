package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "conflict_assignments",
			Help: "Assignments currently in conflict",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM assignments WHERE status = 'conflict'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "active_assignments",
			Help: "Assignments currently running",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM assignments WHERE status = 'active'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "idle_locomotives",
			Help: "Locomotives in idle status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM locomotives WHERE status = 'idle'")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
