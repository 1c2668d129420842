package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiaoxuxiansheng/gocheckout/txtable"
)

const namespace = "gocheckout"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

func (m *ServerMetrics) Observe(handler string, status int, ms float64) {
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(ms)
}

// ParticipantMetrics 参与者事务表打点，实现 txtable.Observer
type ParticipantMetrics struct {
	Open        prometheus.Gauge
	ClosedTotal *prometheus.CounterVec
}

func NewParticipantMetrics(reg prometheus.Registerer, service string) *ParticipantMetrics {
	open := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "open_transactions",
		Help:      "Number of prepared transactions waiting to be finalized.",
	})
	closed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "finalized_transactions_total",
		Help:      "Transactions finalized, by final status and whether the reaper closed them.",
	}, []string{"status", "reaped"})

	reg.MustRegister(open, closed)
	return &ParticipantMetrics{Open: open, ClosedTotal: closed}
}

func (m *ParticipantMetrics) Opened(string) {
	m.Open.Inc()
}

func (m *ParticipantMetrics) Closed(_ string, status txtable.Status, reaped bool) {
	m.Open.Dec()
	m.ClosedTotal.WithLabelValues(status.String(), strconv.FormatBool(reaped)).Inc()
}

type CheckoutMetrics struct {
	Results   *prometheus.CounterVec
	LatencyMS prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer, service string) *CheckoutMetrics {
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkout_duration_ms",
		Help:      "Checkout latency in milliseconds, participants included.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	reg.MustRegister(results, latency)
	return &CheckoutMetrics{Results: results, LatencyMS: latency}
}

func (m *CheckoutMetrics) Observe(result string, ms float64) {
	m.Results.WithLabelValues(result).Inc()
	m.LatencyMS.Observe(ms)
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
