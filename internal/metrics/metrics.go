// Package metrics метрики сервиса в формате Prometheus. Все методы безопасно вызывать на nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ordersvc"

var latencyBucketsMS = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latencyMS     *prometheus.HistogramVec
	settlements   *prometheus.CounterVec
	settlementMS  *prometheus.HistogramVec
	eventOutcomes *prometheus.CounterVec
	sagaOutcomes  *prometheus.CounterVec
	recoveryTasks *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "method", "status"}),
		latencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   latencyBucketsMS,
		}, []string{"handler"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_settlements_total",
			Help:      "Payment approval attempts by outcome.",
		}, []string{"outcome"}),
		settlementMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_settlement_duration_ms",
			Help:      "Payment approval latency in milliseconds, provider call included.",
			Buckets:   latencyBucketsMS,
		}, []string{"outcome"}),
		eventOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain event deliveries by outcome.",
		}, []string{"outcome"}),
		sagaOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sagas_total",
			Help:      "Cancel and refund sagas by kind and outcome.",
		}, []string{"kind", "outcome"}),
		recoveryTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_tasks_total",
			Help:      "Recovery tasks by kind and outcome.",
		}, []string{"task", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latencyMS, m.settlements, m.settlementMS, m.eventOutcomes, m.sagaOutcomes, m.recoveryTasks,
	)
	return m
}

func (m *Metrics) ObserveHTTP(handler, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
	m.latencyMS.WithLabelValues(handler).Observe(float64(d.Milliseconds()))
}

// Settlement исход подтверждения платежа: approved, already_settled, deduplicated, failed, rejected, compensated
// или error.
func (m *Metrics) Settlement(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
	m.settlementMS.WithLabelValues(outcome).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) EventPublish(outcome string) {
	if m == nil {
		return
	}
	m.eventOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Saga(kind, outcome string) {
	if m == nil {
		return
	}
	m.sagaOutcomes.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecoveryTask(task, outcome string) {
	if m == nil {
		return
	}
	m.recoveryTasks.WithLabelValues(task, outcome).Inc()
}

// Handler http обработчик для сбора метрик.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
