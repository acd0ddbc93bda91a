// Package metrics registers the prometheus instruments served at /metrics.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(
		NewHTTPMetrics,
		New,
	),
)

// HTTPMetrics instruments the gin request path.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shulebooks_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shulebooks_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	prometheus.MustRegister(requests, duration)

	return &HTTPMetrics{
		requests: requests,
		duration: duration,
	}
}

// GinMiddleware records request counts and latency. The /metrics scrape
// itself is not instrumented.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// Metrics exposes domain-level counters recorded by the handlers and the
// scheduler. All methods are nil-safe so callers never have to guard.
type Metrics struct {
	paymentsRecorded  *prometheus.CounterVec
	amountCollected   *prometheus.CounterVec
	messagesEnqueued  *prometheus.CounterVec
	receiptsGenerated prometheus.Counter
}

func New() *Metrics {
	paymentsRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shulebooks_payments_recorded_total",
		Help: "Payments recorded by method.",
	}, []string{"method"})
	amountCollected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shulebooks_amount_collected_total",
		Help: "Amount collected in minor units by method.",
	}, []string{"method"})
	messagesEnqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shulebooks_messages_enqueued_total",
		Help: "Guardian messages enqueued by kind.",
	}, []string{"kind"})
	receiptsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shulebooks_receipts_generated_total",
		Help: "Receipt PDFs generated.",
	})

	prometheus.MustRegister(
		paymentsRecorded,
		amountCollected,
		messagesEnqueued,
		receiptsGenerated,
	)

	return &Metrics{
		paymentsRecorded:  paymentsRecorded,
		amountCollected:   amountCollected,
		messagesEnqueued:  messagesEnqueued,
		receiptsGenerated: receiptsGenerated,
	}
}

// RecordPayment increments payment counts and the collected amount.
func (m *Metrics) RecordPayment(method string, amount int64) {
	if m == nil {
		return
	}
	method = strings.TrimSpace(method)
	m.paymentsRecorded.WithLabelValues(method).Inc()
	if amount > 0 {
		m.amountCollected.WithLabelValues(method).Add(float64(amount))
	}
}

// AddMessagesEnqueued increments the enqueued counter for a message kind.
func (m *Metrics) AddMessagesEnqueued(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.messagesEnqueued.WithLabelValues(strings.TrimSpace(kind)).Add(float64(count))
}

// IncReceiptGenerated increments the receipt PDF counter.
func (m *Metrics) IncReceiptGenerated() {
	if m == nil {
		return
	}
	m.receiptsGenerated.Inc()
}
