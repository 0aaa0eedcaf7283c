// Package metrics holds the Prometheus collectors exported by the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LedgerCalls    *prometheus.CounterVec
	LedgerDuration *prometheus.HistogramVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	Logins         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LedgerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goods_ledger_ledger_calls_total",
			Help: "Ledger evaluate and submit calls by transaction and outcome",
		}, []string{"tx", "kind", "outcome"}),
		LedgerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goods_ledger_ledger_call_duration_seconds",
			Help:    "Latency of ledger calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"tx", "kind"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goods_ledger_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goods_ledger_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goods_ledger_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
	}
}

// ObserveLedger records one ledger call.
func (m *Metrics) ObserveLedger(tx, kind, outcome string, d time.Duration) {
	m.LedgerCalls.WithLabelValues(tx, kind, outcome).Inc()
	m.LedgerDuration.WithLabelValues(tx, kind).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, code).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Login counts a login by result: ok, not_found, unauthorized, rate_limited or error.
func (m *Metrics) Login(result string) {
	m.Logins.WithLabelValues(result).Inc()
}
