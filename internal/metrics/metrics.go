package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	geofenceChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hottakes_geofence_checks_total",
			Help: "Total number of geofence checks by outcome",
		},
		[]string{"outcome"},
	)

	trendingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hottakes_trending_runs_total",
			Help: "Total number of trending recompute passes by status",
		},
		[]string{"status"},
	)

	trendingItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hottakes_trending_items_total",
			Help: "Total number of content items processed by the trending recompute",
		},
		[]string{"result"},
	)

	trendingRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hottakes_trending_run_duration_seconds",
			Help:    "Duration of a trending recompute pass in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)
)

// ObserveGeofenceCheck counts a geofence check outcome (hit, miss, invalid, error, checkin)
func ObserveGeofenceCheck(outcome string) {
	geofenceChecksTotal.WithLabelValues(outcome).Inc()
}

// ObserveTrendingRun records one recompute pass
func ObserveTrendingRun(status string, duration time.Duration) {
	trendingRunsTotal.WithLabelValues(status).Inc()
	trendingRunDuration.Observe(duration.Seconds())
}

// ObserveTrendingItem counts a scored or skipped content item
func ObserveTrendingItem(result string) {
	trendingItemsTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
