package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	paymentsInitiated  *prometheus.CounterVec
	paymentReplays     *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
	paymentTransitions *prometheus.CounterVec
	receiptsGenerated  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		paymentsInitiated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Payment initiations by provider and purpose.",
		}, []string{"provider", "purpose"}),
		paymentReplays: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_replays_total",
			Help: "Initiation requests served from a stored attempt.",
		}, []string{"purpose"}),
		webhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Inbound webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		paymentTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Applied payment status transitions by target status.",
		}, []string{"to"}),
		receiptsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payment_receipts_generated_total",
			Help: "Receipts generated for successful payments.",
		}),
	}
}

func (m *Metrics) RecordInitiated(provider, purpose string) {
	if m == nil {
		return
	}
	m.paymentsInitiated.WithLabelValues(provider, purpose).Inc()
}

func (m *Metrics) RecordReplay(purpose string) {
	if m == nil {
		return
	}
	m.paymentReplays.WithLabelValues(purpose).Inc()
}

func (m *Metrics) RecordWebhook(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.paymentTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordReceipt() {
	if m == nil {
		return
	}
	m.receiptsGenerated.Inc()
}

// GinMiddleware instruments inbound HTTP requests.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
