package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "catlog_client"

// instrument wraps next with request counting and latency observation and
// registers the collectors on reg. Collectors already present on reg are
// reused so that several clients can share one registry.
func instrument(reg *prometheus.Registry, next http.RoundTripper) (http.RoundTripper, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "requests_total",
		Help:      "Outbound API requests by status code and method.",
	}, []string{"code", "method"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "request_duration_seconds",
		Help:      "Outbound API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	if err := register(reg, &requests); err != nil {
		return nil, err
	}
	if err := register(reg, &latency); err != nil {
		return nil, err
	}

	return promhttp.InstrumentRoundTripperCounter(requests,
		promhttp.InstrumentRoundTripperDuration(latency, next)), nil
}

func register[C prometheus.Collector](reg *prometheus.Registry, c *C) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		existing, ok := are.ExistingCollector.(C)
		if ok {
			*c = existing
			return nil
		}
	}
	return fmt.Errorf("register metrics: %w", err)
}
