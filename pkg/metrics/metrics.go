package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Summary
	holdings        prometheus.Gauge
	nativeBalance   prometheus.Gauge
	transferTotal   *prometheus.CounterVec
	stageTotal      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "balance_refresh_total",
		Help:      "Balance refreshes by result",
	}, []string{"result"})
	m.refreshDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "dashboard",
		Name:      "balance_refresh_duration_seconds",
		Help:      "Time spent reading balances from the RPC node",
	})
	m.holdings = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "holdings",
		Help:      "Number of holdings of the connected address",
	})
	m.nativeBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "native_balance_sol",
		Help:      "Native balance of the connected address in SOL",
	})
	m.transferTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "transfer_total",
		Help:      "Finished transfer attempts by asset kind and outcome",
	}, []string{"kind", "outcome"})
	m.stageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "transfer_stage_total",
		Help:      "Transfer stage transitions",
	}, []string{"stage"})

	m.registry.MustRegister(
		m.refreshTotal,
		m.refreshDuration,
		m.holdings,
		m.nativeBalance,
		m.transferTotal,
		m.stageTotal,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) ObserveRefresh(started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshTotal.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) SetHoldings(count int, nativeSOL float64) {
	if m == nil {
		return
	}
	m.holdings.Set(float64(count))
	m.nativeBalance.Set(nativeSOL)
}

func (m *Metrics) ObserveStage(stage string) {
	if m == nil {
		return
	}
	m.stageTotal.WithLabelValues(stage).Inc()
}

// ObserveTransfer counts a finished attempt; outcome is "confirmed" or an error kind.
func (m *Metrics) ObserveTransfer(kind, outcome string) {
	if m == nil {
		return
	}
	m.transferTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
