package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalrelay/internal/core"
)

const namespace = "signalrelay"

// Metrics counts handled lines and order attempts on a private registry.
type Metrics struct {
	reg     *prometheus.Registry
	lines   *prometheus.CounterVec
	orders  *prometheus.CounterVec
	latency prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Chat lines handled, by parse result.",
		}, []string{"result"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order placement attempts, by result and error code.",
		}, []string{"result", "code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_seconds",
			Help:      "Time spent placing one order, validation included.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
	m.reg.MustRegister(
		m.lines, m.orders, m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) LineParsed() { m.lines.WithLabelValues("parsed").Inc() }
func (m *Metrics) LineInvalid() { m.lines.WithLabelValues("invalid").Inc() }

func (m *Metrics) OrderPlaced(elapsed time.Duration) {
	m.orders.WithLabelValues("placed", "").Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *Metrics) OrderFailed(code core.ErrorCode, elapsed time.Duration) {
	m.orders.WithLabelValues("failed", string(code)).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

var _ core.Recorder = (*Metrics)(nil)
