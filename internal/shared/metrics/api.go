package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics holds metrics for the HTTP API
type APIMetrics struct {
	Requests *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

var (
	apiMetrics     *APIMetrics
	apiMetricsOnce sync.Once
)

// InitAPI initializes and registers API endpoint metrics
func InitAPI() *APIMetrics {
	apiMetricsOnce.Do(func() {
		apiMetrics = &APIMetrics{
			Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_seconds",
				Help:      "Duration of API requests in seconds, by endpoint",
				Buckets:   prometheus.DefBuckets,
			}, []string{"endpoint"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total errors by endpoint and category",
			}, []string{"endpoint", "category"}),
		}

		prometheus.MustRegister(apiMetrics.Requests, apiMetrics.Errors)
	})
	return apiMetrics
}

// GetAPI returns the API metrics, initializing if needed
func GetAPI() *APIMetrics {
	return InitAPI()
}
