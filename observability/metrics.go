package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics aggregates the engine-facing instrumentation: RPC traffic,
// units sold per path, and crank latencies.
type SaleMetrics struct {
	requests  *prometheus.CounterVec
	unitsSold *prometheus.CounterVec
	crankRuns *prometheus.HistogramVec
}

var (
	saleMetricsOnce sync.Once
	saleRegistry    *SaleMetrics
)

// Sale returns the lazily-initialised sale metrics bundle.
func Sale() *SaleMetrics {
	saleMetricsOnce.Do(func() {
		saleRegistry = &SaleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "spotsale",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			unitsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "spotsale",
				Subsystem: "sale",
				Name:      "units_sold_total",
				Help:      "Units sold segmented by purchase path (mint, coupon, bid, plan).",
			}, []string{"path"}),
			crankRuns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "spotsale",
				Subsystem: "sale",
				Name:      "crank_duration_seconds",
				Help:      "Latency distribution of the bid and plan cranks.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"crank"}),
		}
		prometheus.MustRegister(
			saleRegistry.requests,
			saleRegistry.unitsSold,
			saleRegistry.crankRuns,
		)
	})
	return saleRegistry
}

// Requests exposes the request counter vector for scrape assertions.
func (m *SaleMetrics) Requests() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.requests
}

// ObserveRequest records one JSON-RPC request and its outcome.
func (m *SaleMetrics) ObserveRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}

// AddUnitsSold records units sold through the given purchase path.
func (m *SaleMetrics) AddUnitsSold(path string, units uint64) {
	if m == nil || units == 0 {
		return
	}
	m.unitsSold.WithLabelValues(path).Add(float64(units))
}

// ObserveCrank records the duration of one crank invocation.
func (m *SaleMetrics) ObserveCrank(crank string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.crankRuns.WithLabelValues(crank).Observe(elapsed.Seconds())
}
