// Package metrics exposes prometheus instrumentation for calibration runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alm"

// Collector records solver outcomes on its own registry, so several instances
// (one per test, one per server) never collide.
type Collector struct {
	registry *prometheus.Registry

	calibrations *prometheus.CounterVec
	iterations   prometheus.Histogram
	duration     *prometheus.HistogramVec
	failures     *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		calibrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calibrations_total",
			Help:      "Capital calibrations run, by projection method and convergence.",
		}, []string{"method", "converged"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calibration_iterations",
			Help:      "Bisection iterations used per calibration.",
			Buckets:   prometheus.LinearBuckets(5, 5, 12),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calibration_duration_seconds",
			Help:      "Wall time per calibration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"method"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_failures_total",
			Help:      "Scenarios aborted by load or validation errors.",
		}, []string{"scenario"}),
	}
	c.registry.MustRegister(
		c.calibrations,
		c.iterations,
		c.duration,
		c.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveCalibration records one finished solver run.
func (c *Collector) ObserveCalibration(method string, iterations int, converged bool, elapsed time.Duration) {
	c.calibrations.WithLabelValues(method, strconv.FormatBool(converged)).Inc()
	c.iterations.Observe(float64(iterations))
	c.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveScenarioFailure records a scenario that could not be run.
func (c *Collector) ObserveScenarioFailure(scenario string) {
	c.failures.WithLabelValues(scenario).Inc()
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
