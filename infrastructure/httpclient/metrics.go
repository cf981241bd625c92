package httpclient

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "manara-client/pkg/errors"
)

// Metrics bundles the client's Prometheus collectors.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	cacheHits prometheus.Counter
	retries   prometheus.Counter
}

// NewMetrics creates and registers the client collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manara",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "manara",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manara",
			Subsystem: "client",
			Name:      "cache_fallbacks_total",
			Help:      "Reads resolved from the stale-on-error cache.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manara",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Re-dispatched attempts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.cacheHits, m.retries)
	}
	return m
}

// MetricsDoer records request counts, outcomes and latency. It sits near
// the outside of the chain so a logical call is one observation no matter
// how many attempts it took.
type MetricsDoer struct {
	inner   Doer
	metrics *Metrics
}

// NewMetricsDoer creates the metrics decorator.
func NewMetricsDoer(inner Doer, metrics *Metrics) *MetricsDoer {
	return &MetricsDoer{inner: inner, metrics: metrics}
}

// Do observes one logical call.
func (d *MetricsDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := d.inner.Do(ctx, req)
	d.metrics.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err != nil && apperrors.StatusOf(err) > 0:
		outcome = strconv.Itoa(apperrors.StatusOf(err))
	case err != nil:
		outcome = "transport_error"
	case resp.FromCache:
		outcome = "cache"
	}
	d.metrics.requests.WithLabelValues(req.Method, outcome).Inc()
	if req.retryCount > 0 {
		d.metrics.retries.Add(float64(req.retryCount))
	}
	return resp, err
}

var _ Doer = (*MetricsDoer)(nil)
