// Package metrics provides Prometheus metrics collection for typeforge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compilation results.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
)

// Collector holds all Prometheus metrics for typeforge.
type Collector struct {
	registry *prometheus.Registry

	// Compilation metrics
	Compilations    *prometheus.CounterVec
	CompileDuration prometheus.Histogram

	// Registry metrics
	Installs    *prometheus.CounterVec
	Retirements prometheus.Counter
	LiveTypes   prometheus.Gauge

	// Record metrics
	AtomsSaved *prometheus.CounterVec

	// Diagnostics server metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector on a private registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c := NewWithRegistry(reg)
	c.registry = reg
	return c
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		Compilations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "compilations_total",
				Help:      "Total number of descriptor compilations by result",
			},
			[]string{"result"},
		),
		CompileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "typeforge",
				Name:      "compile_duration_seconds",
				Help:      "Descriptor compilation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		Installs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "type_installs_total",
				Help:      "Total number of runtime types installed, by kind",
			},
			[]string{"kind"},
		),
		Retirements: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "type_retirements_total",
				Help:      "Total number of runtime types removed",
			},
		),
		LiveTypes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "typeforge",
				Name:      "live_types",
				Help:      "Number of runtime types currently registered",
			},
		),
		AtomsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "atoms_saved_total",
				Help:      "Total number of record saves by result",
			},
			[]string{"type", "result"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "http_requests_total",
				Help:      "Total number of diagnostics requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "typeforge",
				Name:      "http_request_duration_seconds",
				Help:      "Diagnostics request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "route"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "typeforge",
				Name:      "config_reload_errors_total",
				Help:      "Total number of configuration reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "typeforge",
				Name:      "config_last_reload_timestamp",
				Help:      "Timestamp of last successful configuration reload",
			},
		),
	}

	if r, ok := reg.(*prometheus.Registry); ok {
		c.registry = r
	}
	return c
}

// ObserveCompile records one compilation.
func (c *Collector) ObserveCompile(result string, elapsed time.Duration) {
	c.Compilations.WithLabelValues(result).Inc()
	if result == ResultOK {
		c.CompileDuration.Observe(elapsed.Seconds())
	}
}

// TypeInstalled records a registry install of the given kind
// (installed, replaced, attached).
func (c *Collector) TypeInstalled(kind string) {
	c.Installs.WithLabelValues(kind).Inc()
}

// TypeRetired records a registry removal.
func (c *Collector) TypeRetired() {
	c.Retirements.Inc()
}

// SetLiveTypes sets the number of registered types.
func (c *Collector) SetLiveTypes(n int) {
	c.LiveTypes.Set(float64(n))
}

// AtomSaved records a record save of typeName.
func (c *Collector) AtomSaved(typeName, result string) {
	c.AtomsSaved.WithLabelValues(typeName, result).Inc()
}

// ObserveRequest records one diagnostics request. route is the matched
// route pattern, not the raw path.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordReload records a configuration reload attempt.
func (c *Collector) RecordReload(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
