// Package metrics exposes the Prometheus instruments of the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vistoenmaps_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vistoenmaps_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vistoenmaps_api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	RateLimitedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vistoenmaps_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Recommendations
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vistoenmaps_recommendations_total",
			Help: "Total number of recommendation lists computed",
		},
		[]string{"category", "known_category"},
	)

	RecommendationResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vistoenmaps_recommendation_result_size",
			Help:    "Number of directories returned per recommendation list",
			Buckets: []float64{0, 5, 10, 20, 30, 40, 60, 80},
		},
	)

	CatalogDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vistoenmaps_catalog_directories",
			Help: "Number of directories in the loaded catalog",
		},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vistoenmaps_db_query_duration_seconds",
			Help:    "Duration of business store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vistoenmaps_db_query_errors_total",
			Help: "Total number of failed business store operations",
		},
		[]string{"operation"},
	)

	BusinessesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vistoenmaps_businesses",
			Help: "Number of stored businesses, refreshed on admin stats",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records one computed recommendation list.
// Unknown categories share a label to bound cardinality.
func RecordRecommendation(category string, known bool, results int) {
	label := category
	if !known {
		label = "unknown"
	}
	RecommendationsTotal.WithLabelValues(label, strconv.FormatBool(known)).Inc()
	RecommendationResultSize.Observe(float64(results))
}

// RecordDBQuery records a business store operation
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
