package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tilesave"

// Metrics are the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TransferBytes   *prometheus.CounterVec
	RejectedUploads *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg, or with a new registry when
// reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests handled, by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"route"}),
		TransferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "transfer_bytes_total",
			Help:      "Save bytes moved, by direction.",
		}, []string{"direction"}),
		RejectedUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rejected_uploads_total",
			Help:      "Uploads refused, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.TransferBytes, m.RejectedUploads)
	return m
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

const statusKey = "tilesave.status"

// instrument counts and times every call of h under route.
func (m *Metrics) instrument(route string, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := h(c)
		code := http.StatusOK
		if v, ok := c.Get(statusKey).(int); ok {
			code = v
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}
