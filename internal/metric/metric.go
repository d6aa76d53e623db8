package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rpg"

// Metrics holds every collector of the control plane
type Metrics struct {
	registry *prometheus.Registry

	GraphsRunning     prometheus.Gauge
	DriverIterations  *prometheus.CounterVec
	DriverFaults      prometheus.Counter
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	EventsPublished   *prometheus.CounterVec
	StreamClients     prometheus.Gauge
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		GraphsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "running",
			Help:      "Number of graphs whose driver is running",
		}),

		DriverIterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "driver",
				Name:      "iterations_total",
				Help:      "Total number of poll passes per graph",
			},
			[]string{"graph"},
		),

		DriverFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "faults_total",
			Help:      "Total number of drivers stopped by a panicking poll",
		}),

		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "control",
				Name:      "operations_total",
				Help:      "Total number of control operations by outcome",
			},
			[]string{"operation", "status"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "control",
				Name:      "operation_duration_seconds",
				Help:      "Control operation latency in seconds, lock wait included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of events published",
			},
			[]string{"type"},
		),

		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "stream_clients",
			Help:      "Number of connected event stream clients",
		}),
	}

	m.registry.MustRegister(
		m.GraphsRunning,
		m.DriverIterations,
		m.DriverFaults,
		m.Operations,
		m.OperationDuration,
		m.EventsPublished,
		m.StreamClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// DriverStarted implements registry.Observer
func (m *Metrics) DriverStarted(graph string) func() {
	m.GraphsRunning.Inc()
	return m.DriverIterations.WithLabelValues(graph).Inc
}

// DriverStopped implements registry.Observer
func (m *Metrics) DriverStopped(graph string, iterations uint64, fault error) {
	m.GraphsRunning.Dec()
	m.DriverIterations.DeleteLabelValues(graph)
	if fault != nil {
		m.DriverFaults.Inc()
	}
}

// RecordOperation counts one control operation and its latency
func (m *Metrics) RecordOperation(operation, status string, duration time.Duration) {
	m.Operations.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEvent counts one published event
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordStreamClients sets the number of connected stream clients
func (m *Metrics) RecordStreamClients(n int) {
	m.StreamClients.Set(float64(n))
}
