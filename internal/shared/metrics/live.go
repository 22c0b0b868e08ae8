package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LiveMetrics holds metrics for the live location feed and playback stream
type LiveMetrics struct {
	Samples     prometheus.Counter
	Drivers     prometheus.Gauge
	Clients     prometheus.Gauge
	SkewSeconds prometheus.Gauge
	Errors      *prometheus.CounterVec
}

var (
	liveMetrics     *LiveMetrics
	liveMetricsOnce sync.Once
)

// InitLive initializes and registers live feed metrics
func InitLive() *LiveMetrics {
	liveMetricsOnce.Do(func() {
		liveMetrics = &LiveMetrics{
			Samples: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "samples_total",
				Help:      "Location samples ingested",
			}),
			Drivers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "drivers",
				Help:      "Drivers with buffered location history",
			}),
			Clients: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "ws_clients",
				Help:      "Connected playback websocket clients",
			}),
			SkewSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "clock_skew_seconds",
				Help:      "Smoothed local minus server clock skew",
			}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "errors_total",
				Help:      "Total errors by category",
			}, []string{"category"}),
		}

		prometheus.MustRegister(
			liveMetrics.Samples,
			liveMetrics.Drivers,
			liveMetrics.Clients,
			liveMetrics.SkewSeconds,
			liveMetrics.Errors,
		)
	})
	return liveMetrics
}

// GetLive returns the live metrics, initializing if needed
func GetLive() *LiveMetrics {
	return InitLive()
}
