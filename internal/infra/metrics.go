package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: время обработки HTTP запросов портала
	RequestDuration *prometheus.HistogramVec

	// Оценки риска по источнику и уровню
	Assessments *prometheus.CounterVec

	// Исходы вызовов ML-сервиса: success, error, circuit_open, rate_limited
	MLCalls *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - ок, 0.5 - half-open, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Audit: заполненность буфера журнала доступа (backpressure)
	AuditBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ovcare_http_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),

		Assessments: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ovcare_risk_assessments_total",
			Help: "Risk assessments served, by source and tier.",
		}, []string{"source", "tier"}),

		MLCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ovcare_ml_calls_total",
			Help: "Outcomes of ML prediction calls.",
		}, []string{"outcome"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ovcare_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 0.5=half-open, 1=open).",
		}, []string{"name"}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ovcare_audit_buffer_utilization",
			Help: "Current number of events in access audit buffer.",
		}),
	}
}
