package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	nodeCallTotal    *prometheus.CounterVec
	nodeCallDuration *prometheus.HistogramVec
	nodeSkippedTotal *prometheus.CounterVec
	backendErrors    *prometheus.CounterVec

	turnTotal    *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	turnsActive  prometheus.Gauge

	extractionTotal *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			nodeCallTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chain_node_call_total",
					Help: "Total backend calls made by prompt nodes by node, tier and status.",
				},
				[]string{"node", "tier", "status"},
			),
			nodeCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "chain_node_call_duration_seconds",
					Help:    "Backend call duration in seconds by node.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"node"},
			),
			nodeSkippedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chain_node_skipped_total",
					Help: "Total nodes whose generator decided not to call the backend.",
				},
				[]string{"node"},
			),
			backendErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chain_backend_errors_total",
					Help: "Total backend errors by node.",
				},
				[]string{"node"},
			),
			turnTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analyzer_turn_total",
					Help: "Total analyzer turns by kind and status.",
				},
				[]string{"kind", "status"},
			),
			turnDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "analyzer_turn_duration_seconds",
					Help:    "Analyzer turn duration in seconds by kind.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"kind"},
			),
			turnsActive: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "analyzer_turns_active",
					Help: "Analyzer turns currently in flight.",
				},
			),
			extractionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "extraction_total",
					Help: "Total extraction rule evaluations by target key and result.",
				},
				[]string{"target", "result"},
			),
		}

		prometheus.MustRegister(
			m.nodeCallTotal,
			m.nodeCallDuration,
			m.nodeSkippedTotal,
			m.backendErrors,
			m.turnTotal,
			m.turnDuration,
			m.turnsActive,
			m.extractionTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// Call outcomes recorded by RecordNodeCall.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

func RecordNodeCall(node, tier string, duration time.Duration, status string) {
	m := getMetrics()
	m.nodeCallTotal.WithLabelValues(node, tier, status).Inc()
	m.nodeCallDuration.WithLabelValues(node).Observe(duration.Seconds())
	if status == StatusError {
		m.backendErrors.WithLabelValues(node).Inc()
	}
}

func RecordNodeSkipped(node string) {
	m := getMetrics()
	m.nodeSkippedTotal.WithLabelValues(node).Inc()
}

func RecordTurn(kind string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.turnTotal.WithLabelValues(kind, status).Inc()
	m.turnDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// TurnStarted increments the in-flight gauge and returns the matching decrement.
func TurnStarted() func() {
	m := getMetrics()
	m.turnsActive.Inc()
	return m.turnsActive.Dec
}

func RecordExtraction(target string, matched bool) {
	m := getMetrics()
	result := "miss"
	if matched {
		result = "hit"
	}
	m.extractionTotal.WithLabelValues(target, result).Inc()
}
