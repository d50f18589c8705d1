// Package metrics defines the Prometheus instruments for the ingestion and
// classification pipeline.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification result label values.
const (
	ResultPainPoint    = "pain_point"
	ResultNotPainPoint = "not_pain_point"
	ResultBackendError = "backend_error"
	ResultUnparseable  = "unparseable"
)

var (
	// PostsIngested counts posts accepted into the record store, by source.
	PostsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "painscope_posts_ingested_total",
		Help: "Number of posts ingested into the record store.",
	}, []string{"source"})

	// PostsDuplicate counts posts rejected as fingerprint duplicates, by source.
	PostsDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "painscope_posts_duplicate_total",
		Help: "Number of ingested posts skipped as duplicates.",
	}, []string{"source"})

	// Classifications counts completed classification attempts by outcome.
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "painscope_classifications_total",
		Help: "Number of classification attempts by result.",
	}, []string{"result"})

	// ClassificationDuration observes wall time of a single post
	// classification, backend call included.
	ClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "painscope_classification_duration_seconds",
		Help:    "Duration of a single post classification.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

// DatabaseMetrics exposes connection pool statistics as gauges.
type DatabaseMetrics struct {
	openConnections prometheus.Gauge
	inUse           prometheus.Gauge
	idle            prometheus.Gauge
	waitCount       prometheus.Gauge
	waitDuration    prometheus.Gauge
}

// NewDatabaseMetrics registers pool gauges labelled with the service name.
func NewDatabaseMetrics(service string) *DatabaseMetrics {
	labels := prometheus.Labels{"service": service}
	return &DatabaseMetrics{
		openConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "painscope_db_open_connections",
			Help:        "Open database connections.",
			ConstLabels: labels,
		}),
		inUse: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "painscope_db_in_use_connections",
			Help:        "Database connections currently in use.",
			ConstLabels: labels,
		}),
		idle: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "painscope_db_idle_connections",
			Help:        "Idle database connections.",
			ConstLabels: labels,
		}),
		waitCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "painscope_db_wait_count_total",
			Help:        "Total connections waited for.",
			ConstLabels: labels,
		}),
		waitDuration: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "painscope_db_wait_duration_seconds",
			Help:        "Total time blocked waiting for a connection.",
			ConstLabels: labels,
		}),
	}
}

// Update refreshes the gauges from a live pool snapshot.
func (m *DatabaseMetrics) Update(stats sql.DBStats) {
	m.openConnections.Set(float64(stats.OpenConnections))
	m.inUse.Set(float64(stats.InUse))
	m.idle.Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
	m.waitDuration.Set(stats.WaitDuration.Seconds())
}
