package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	searchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_search_requests_total",
			Help: "Offer searches by sort key.",
		},
		[]string{"sort"},
	)
	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offer_search_results",
			Help:    "Number of offers returned per search.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
	transportCost = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transport_cost_birr",
			Help:    "Transport cost quoted for placed orders.",
			Buckets: prometheus.ExponentialBuckets(500, 2, 8),
		},
	)
	ordersPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders accepted by the marketplace.",
		},
	)
	orderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by outcome.",
		},
		[]string{"from", "to", "result"},
	)
	offersImportedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_imported_total",
			Help: "Rows handled by the offer importer.",
		},
		[]string{"result"},
	)
	storageBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storage_circuit_state",
			Help: "Storage circuit breaker state: 0 closed, 1 open, 2 half-open.",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		searchRequestsTotal,
		searchResults,
		transportCost,
		ordersPlacedTotal,
		orderTransitionsTotal,
		offersImportedTotal,
		storageBreakerState,
	)
}

// RecordRequest records the metrics of one HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordSearch(sortKey string, results int) {
	searchRequestsTotal.WithLabelValues(sortKey).Inc()
	searchResults.Observe(float64(results))
}

func RecordOrderPlaced(cost float64) {
	ordersPlacedTotal.Inc()
	transportCost.Observe(cost)
}

func RecordTransition(from, to string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	orderTransitionsTotal.WithLabelValues(from, to, result).Inc()
}

func RecordImport(imported, failed int) {
	offersImportedTotal.WithLabelValues("imported").Add(float64(imported))
	offersImportedTotal.WithLabelValues("failed").Add(float64(failed))
}

func SetBreakerState(name string, state float64) {
	storageBreakerState.WithLabelValues(name).Set(state)
}

// classifyStatus buckets an HTTP status code into its class.
func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
