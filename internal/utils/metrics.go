package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector tracks request volume, errors and per-operation latency.
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount *prometheus.CounterVec
	errorCount   *prometheus.CounterVec
	opLatency    *prometheus.HistogramVec

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	mc := &MetricsCollector{
		registry: registry,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadpost",
			Name:      "requests_total",
			Help:      "Total number of handled requests.",
		}, []string{"handler"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadpost",
			Name:      "errors_total",
			Help:      "Total number of failed requests.",
		}, []string{"handler"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "threadpost",
			Name:      "operation_duration_seconds",
			Help:      "Latency of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		systemStartTime: time.Now(),
	}

	registry.MustRegister(mc.requestCount, mc.errorCount, mc.opLatency)
	return mc
}

func (mc *MetricsCollector) IncrementRequests(handler string) {
	mc.requestCount.WithLabelValues(handler).Inc()
}

func (mc *MetricsCollector) IncrementErrors(handler string) {
	mc.errorCount.WithLabelValues(handler).Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.opLatency.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}

// Handler exposes the collector's registry in Prometheus exposition format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
