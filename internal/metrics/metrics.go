// Package metrics exposes the relay and HTTP metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcontractkit/bloodledger/relay"
)

const namespace = "bloodledger"

// Metrics holds every collector of the process. It implements relay.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	transactions    *prometheus.CounterVec
	confirmDuration *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ relay.Metrics = (*Metrics)(nil)

// New registers the collectors on registry. A nil registry gets a fresh one carrying the Go
// runtime and process collectors.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "transactions_total",
			Help:      "Relayed write transactions by outcome",
		}, []string{"relay", "method", "outcome"}),
		confirmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "confirm_seconds",
			Help:      "Time from sending a transaction until it is mined or the wait fails",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30, 60, 120, 300},
		}, []string{"relay", "method"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"method", "route"}),
	}

	registry.MustRegister(m.transactions, m.confirmDuration, m.requests, m.requestDuration)

	return m
}

// ObserveTransaction implements relay.Metrics.
func (m *Metrics) ObserveTransaction(relayName, method, outcome string) {
	m.transactions.WithLabelValues(relayName, method, outcome).Inc()
}

// ObserveConfirm implements relay.Metrics.
func (m *Metrics) ObserveConfirm(relayName, method string, elapsed time.Duration) {
	m.confirmDuration.WithLabelValues(relayName, method).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request. route is the matched route pattern, not the
// raw path, to keep the label set bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
