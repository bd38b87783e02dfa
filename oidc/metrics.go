package oidc

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request results recorded by Metrics.
const (
	resultSuccess        = "success"
	resultHTTPError      = "http_error"
	resultTransportError = "transport_error"
)

// Metrics holds Prometheus metrics for requests sent to the provider. A nil
// *Metrics records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client metrics and registers them with reg. A nil
// reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	const op = "oidc.NewMetrics"
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "oidc",
				Name:      "requests_total",
				Help:      "Total number of requests sent to the OIDC provider",
			},
			[]string{"operation", "result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "oidc",
				Name:      "request_duration_seconds",
				Help:      "Duration of requests sent to the OIDC provider in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "result"},
		),
	}
	for _, c := range []prometheus.Collector{m.requestsTotal, m.requestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("%s: unable to register collector: %w", op, err)
		}
	}
	return m, nil
}

func (m *Metrics) record(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, result).Inc()
	m.requestDuration.WithLabelValues(operation, result).Observe(d.Seconds())
}
