// Package metrics exposes the service's Prometheus collectors. A nil *Metrics
// is valid and records nothing, so components can run without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soilmon"

// Ingest outcomes for bus messages.
const (
	IngestAccepted = "accepted"
	IngestFiltered = "filtered"
	IngestInvalid  = "invalid"
	IngestFailed   = "write_error"
)

type Metrics struct {
	registry *prometheus.Registry

	ingestTotal   *prometheus.CounterVec   // result
	writesTotal   *prometheus.CounterVec   // source, status
	queriesTotal  *prometheus.CounterVec   // kind, status
	queryRows     *prometheus.HistogramVec // kind
	httpRequests  *prometheus.CounterVec   // method, route, code
	httpDuration  *prometheus.HistogramVec // method, route
	mqttConnected prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_total",
			Help:      "Bus messages by outcome (accepted, filtered, invalid, write_error)",
		}, []string{"result"}),

		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Sample writes by source and status",
		}, []string{"source", "status"}),

		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "queries_total",
			Help:      "Range queries by kind and status",
		}, []string{"kind", "status"}),

		queryRows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_rows",
			Help:      "Rows returned per range query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"kind"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mqtt",
			Name:      "connected",
			Help:      "1 while the MQTT client holds a broker connection",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingestTotal,
		m.writesTotal,
		m.queriesTotal,
		m.queryRows,
		m.httpRequests,
		m.httpDuration,
		m.mqttConnected,
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) RecordIngest(result string) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordWrite(source string, err error) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(source, status(err)).Inc()
}

func (m *Metrics) RecordQuery(kind string, rows int, err error) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(kind, status(err)).Inc()
	if err == nil {
		m.queryRows.WithLabelValues(kind).Observe(float64(rows))
	}
}

func (m *Metrics) RecordHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SetMQTTConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.mqttConnected.Set(1)
		return
	}
	m.mqttConnected.Set(0)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
