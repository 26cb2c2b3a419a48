package rest

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// transportMetrics instruments outgoing requests for one API.
type transportMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// WithMetrics records request counts, latencies and in-flight requests on
// reg. Every series carries an "api" label set to api.
func WithMetrics(reg prometheus.Registerer, api string) Option {
	return func(c *Client) {
		if reg == nil {
			return
		}
		c.metrics = newTransportMetrics(prometheus.WrapRegistererWith(prometheus.Labels{"api": api}, reg))
	}
}

func newTransportMetrics(reg prometheus.Registerer) *transportMetrics {
	m := &transportMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiclients_http_requests_total",
				Help: "HTTP requests sent to the API by status code and method.",
			},
			[]string{"code", "method"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apiclients_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "apiclients_http_requests_in_flight",
				Help: "HTTP requests currently waiting for a response.",
			},
		),
	}

	// A second client for the same API shares the already registered series.
	if existing, ok := register(reg, m.requests).(*prometheus.CounterVec); ok {
		m.requests = existing
	}
	if existing, ok := register(reg, m.duration).(*prometheus.HistogramVec); ok {
		m.duration = existing
	}
	if existing, ok := register(reg, m.inFlight).(prometheus.Gauge); ok {
		m.inFlight = existing
	}
	return m
}

// register returns the previously registered collector when c is a duplicate.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	return nil
}

func (m *transportMetrics) instrument(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(m.inFlight,
		promhttp.InstrumentRoundTripperCounter(m.requests,
			promhttp.InstrumentRoundTripperDuration(m.duration, next),
		),
	)
}
