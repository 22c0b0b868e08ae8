package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SeasonMetrics holds metrics for season aggregation
type SeasonMetrics struct {
	BuildSeconds *prometheus.HistogramVec
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	LastBuilt    *prometheus.GaugeVec
	Errors       *prometheus.CounterVec
}

var (
	seasonMetrics     *SeasonMetrics
	seasonMetricsOnce sync.Once
)

// InitSeason initializes and registers season aggregation metrics
func InitSeason() *SeasonMetrics {
	seasonMetricsOnce.Do(func() {
		seasonMetrics = &SeasonMetrics{
			BuildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "season",
				Name:      "build_seconds",
				Help:      "Time spent building a season dataset, by kind",
				Buckets:   []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 600},
			}, []string{"kind"}),
			CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "season",
				Name:      "cache_hits_total",
				Help:      "Cache hits by kind",
			}, []string{"kind"}),
			CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "season",
				Name:      "cache_misses_total",
				Help:      "Cache misses by kind",
			}, []string{"kind"}),
			LastBuilt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "season",
				Name:      "last_built",
				Help:      "Last successful build timestamp in milliseconds, by kind",
			}, []string{"kind"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "season",
				Name:      "errors_total",
				Help:      "Total errors by category",
			}, []string{"category"}),
		}

		prometheus.MustRegister(
			seasonMetrics.BuildSeconds,
			seasonMetrics.CacheHits,
			seasonMetrics.CacheMisses,
			seasonMetrics.LastBuilt,
			seasonMetrics.Errors,
		)
	})
	return seasonMetrics
}

// GetSeason returns the season metrics, initializing if needed
func GetSeason() *SeasonMetrics {
	return InitSeason()
}

// TaskMetrics holds metrics for background season tasks
type TaskMetrics struct {
	Duration  *prometheus.HistogramVec
	Processed *prometheus.CounterVec
	Errors    *prometheus.CounterVec
}

var (
	taskMetrics     *TaskMetrics
	taskMetricsOnce sync.Once
)

// InitTasks initializes and registers worker task metrics
func InitTasks() *TaskMetrics {
	taskMetricsOnce.Do(func() {
		taskMetrics = &TaskMetrics{
			Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "duration_seconds",
				Help:      "Task run time by task type",
				Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 1200},
			}, []string{"task_type"}),
			Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "processed_total",
				Help:      "Tasks finished by task type and outcome",
			}, []string{"task_type", "outcome"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "errors_total",
				Help:      "Total errors by category",
			}, []string{"category"}),
		}

		prometheus.MustRegister(taskMetrics.Duration, taskMetrics.Processed, taskMetrics.Errors)
	})
	return taskMetrics
}

// GetTasks returns the task metrics, initializing if needed
func GetTasks() *TaskMetrics {
	return InitTasks()
}
