// Package metrics exposes Prometheus collectors for analyses and org queries.
package metrics

import (
	"time"

	intel "ninebox/domain/intelligence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ninebox",
		Subsystem: "intelligence",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent building one intelligence report.",
		Buckets: []float64{
			0.001, 0.005, 0.01,
			0.05, 0.1, 0.5,
			1, 2, 5,
		},
	}, []string{"axis"})

	anomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ninebox",
		Subsystem: "intelligence",
		Name:      "anomalies_total",
		Help:      "Anomalies reported, broken down by severity.",
	}, []string{"severity"})

	qualityScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ninebox",
		Subsystem: "intelligence",
		Name:      "quality_score",
		Help:      "Quality score of the most recent report.",
	})

	orgQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ninebox",
		Subsystem: "org",
		Name:      "queries_total",
		Help:      "Org hierarchy queries broken down by operation and result.",
	}, []string{"operation", "result"})
)

// ObserveReport records duration, quality score and anomalies of one report.
func ObserveReport(r *intel.Report, elapsed time.Duration) {
	analysisDuration.WithLabelValues(string(r.Axis)).Observe(elapsed.Seconds())
	qualityScore.Set(float64(r.QualityScore))
	anomaliesTotal.WithLabelValues(string(intel.SeveritySevere)).Add(float64(r.AnomalyCounts.Severe))
	anomaliesTotal.WithLabelValues(string(intel.SeverityModerate)).Add(float64(r.AnomalyCounts.Moderate))
}

// ObserveOrgQuery counts one org query. result is "ok", "not_found" or "error".
func ObserveOrgQuery(operation, result string) {
	orgQueries.WithLabelValues(operation, result).Inc()
}
