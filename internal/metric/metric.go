// Package metric exposes Prometheus metrics for the handle service.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "handlemock"

// Metrics holds the service's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Operations    *prometheus.CounterVec
	OperationTime *prometheus.HistogramVec
	Handles       prometheus.Gauge
	Prefixes      prometheus.Gauge
	LookupResults prometheus.Histogram
	HTTPRequests  *prometheus.CounterVec
	EventsDropped prometheus.Counter
	JournalErrors prometheus.Counter
	SeedReloads   *prometheus.CounterVec
}

// New creates the metrics and registers them, along with Go runtime
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Store operations by operation and result kind",
			},
			[]string{"operation", "result"},
		),

		OperationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Store operation latency in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"operation"},
		),

		Handles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "handles",
			Help:      "Number of stored handles",
		}),

		Prefixes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "prefixes",
			Help:      "Number of registered prefixes",
		}),

		LookupResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "results",
			Help:      "Handles returned per reverse lookup",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		),

		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Events dropped because a subscriber was slow",
		}),

		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "errors_total",
			Help:      "Failed journal writes",
		}),

		SeedReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "seed",
				Name:      "loads_total",
				Help:      "Seed file loads by status",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		m.Operations,
		m.OperationTime,
		m.Handles,
		m.Prefixes,
		m.LookupResults,
		m.HTTPRequests,
		m.EventsDropped,
		m.JournalErrors,
		m.SeedReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation counts one store operation and its latency
func (m *Metrics) ObserveOperation(op, result string, started time.Time) {
	m.Operations.WithLabelValues(op, result).Inc()
	m.OperationTime.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// SetSize records the current store size
func (m *Metrics) SetSize(prefixes, handles int) {
	m.Prefixes.Set(float64(prefixes))
	m.Handles.Set(float64(handles))
}
