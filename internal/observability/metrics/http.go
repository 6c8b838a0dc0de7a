package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry returns the registry served on /metrics and shipped by the
// remote write pusher.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// HTTPMetrics exposes Prometheus request metrics and business gauges.
type HTTPMetrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inflight   prometheus.Gauge
	leads      *prometheus.CounterVec
	inquiries  *prometheus.GaugeVec
	subscribed prometheus.Gauge
	products   prometheus.Gauge
}

func NewHTTPMetrics(registry *prometheus.Registry) *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpack_http_requests_total",
		Help: "Counts HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "greenpack_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenpack_http_inflight_requests",
		Help: "Requests currently being served.",
	})

	leads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpack_leads_total",
		Help: "Form submissions by kind and outcome.",
	}, []string{"form_kind", "outcome"})

	inquiries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "greenpack_inquiries",
		Help: "Stored inquiries by status.",
	}, []string{"status"})

	subscribed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenpack_active_subscribers",
		Help: "Subscribers currently opted in.",
	})

	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenpack_products",
		Help: "Products in the catalog.",
	})

	if registry != nil {
		registry.MustRegister(requests, duration, inflight, leads, inquiries, subscribed, products)
	}

	return &HTTPMetrics{
		requests:   requests,
		duration:   duration,
		inflight:   inflight,
		leads:      leads,
		inquiries:  inquiries,
		subscribed: subscribed,
		products:   products,
	}
}

// GinMiddleware records request counts and latency per route.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveLead counts a form submission outcome: accepted, invalid or failed.
func (m *HTTPMetrics) ObserveLead(formKind, outcome string) {
	if m == nil {
		return
	}
	m.leads.WithLabelValues(sanitizeLabel(formKind), sanitizeLabel(outcome)).Inc()
}

func (m *HTTPMetrics) SetInquiries(status string, count int64) {
	if m == nil {
		return
	}
	m.inquiries.WithLabelValues(sanitizeLabel(status)).Set(float64(count))
}

func (m *HTTPMetrics) SetActiveSubscribers(count int64) {
	if m == nil {
		return
	}
	m.subscribed.Set(float64(count))
}

func (m *HTTPMetrics) SetProducts(count int64) {
	if m == nil {
		return
	}
	m.products.Set(float64(count))
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
