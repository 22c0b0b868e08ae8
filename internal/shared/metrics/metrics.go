package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pitwall"

// OpenF1ClientMetrics holds metrics for the queued OpenF1 client
type OpenF1ClientMetrics struct {
	QueueDepth prometheus.Gauge
	Requests   *prometheus.HistogramVec
	Retries    *prometheus.CounterVec
	TokenFetch prometheus.Counter
	Errors     *prometheus.CounterVec
}

var (
	openF1Metrics     *OpenF1ClientMetrics
	openF1MetricsOnce sync.Once
)

// InitOpenF1Client initializes and registers metrics for the OpenF1 client
func InitOpenF1Client() *OpenF1ClientMetrics {
	openF1MetricsOnce.Do(func() {
		openF1Metrics = &OpenF1ClientMetrics{
			QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "openf1",
				Name:      "queue_depth",
				Help:      "Requests waiting in the client queue",
			}),
			Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "openf1",
				Name:      "request_seconds",
				Help:      "Duration of upstream requests in seconds by status class",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "openf1",
				Name:      "retries_total",
				Help:      "Retried attempts by retry class",
			}, []string{"class"}),
			TokenFetch: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "openf1",
				Name:      "token_fetch_total",
				Help:      "Bearer token exchanges against the auth endpoint",
			}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "openf1",
				Name:      "errors_total",
				Help:      "Total errors by category",
			}, []string{"category"}),
		}

		prometheus.MustRegister(
			openF1Metrics.QueueDepth,
			openF1Metrics.Requests,
			openF1Metrics.Retries,
			openF1Metrics.TokenFetch,
			openF1Metrics.Errors,
		)
	})
	return openF1Metrics
}

// GetOpenF1Client returns the OpenF1 client metrics, initializing if needed
func GetOpenF1Client() *OpenF1ClientMetrics {
	return InitOpenF1Client()
}
