// Package metrics provides Prometheus metrics for the supervised backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backendhost"

// Backend holds the backend supervision metrics on its own registry.
type Backend struct {
	registry *prometheus.Registry

	spawns        prometheus.Counter
	spawnFailures prometheus.Counter
	killSignals   prometheus.Counter
	lines         *prometheus.CounterVec
	readErrors    prometheus.Counter
	up            prometheus.Gauge
	startTime     prometheus.Gauge
	exitCode      prometheus.Gauge
}

// NewBackend creates the metric set. Go runtime and process collectors are
// registered alongside so /metrics also describes the host itself.
func NewBackend() *Backend {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Backend{
		registry: reg,
		spawns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "spawns_total",
			Help:      "Backend processes successfully spawned",
		}),
		spawnFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "spawn_failures_total",
			Help:      "Backend spawn attempts that failed",
		}),
		killSignals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "kill_signals_total",
			Help:      "Kill signals sent to the backend",
		}),
		lines: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "output_lines_total",
			Help:      "Backend output lines relayed, by stream",
		}, []string{"stream"}),
		readErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "output_read_errors_total",
			Help:      "Backend output chunks skipped as unreadable",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "up",
			Help:      "1 while the backend process is running",
		}),
		startTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "start_time_seconds",
			Help:      "Unix time the backend was spawned",
		}),
		exitCode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "last_exit_code",
			Help:      "Exit code of the last backend process, -1 if none exited",
		}),
	}
}

// Init sets gauges to their before-start values.
func (m *Backend) Init() {
	m.exitCode.Set(-1)
	m.lines.WithLabelValues("stdout")
	m.lines.WithLabelValues("stderr")
}

// Spawned records a successful spawn.
func (m *Backend) Spawned(at time.Time) {
	m.spawns.Inc()
	m.up.Set(1)
	m.startTime.Set(float64(at.Unix()))
}

// SpawnFailed records a failed spawn.
func (m *Backend) SpawnFailed() {
	m.spawnFailures.Inc()
	m.up.Set(0)
}

// KillSent records a kill signal.
func (m *Backend) KillSent() {
	m.killSignals.Inc()
}

// Exited records the backend's exit.
func (m *Backend) Exited(code int) {
	m.up.Set(0)
	m.exitCode.Set(float64(code))
}

// HandleLine counts a relayed line. It satisfies relay.OutputHandler.
func (m *Backend) HandleLine(stream, _ string) {
	m.lines.WithLabelValues(stream).Inc()
}

// ReadError counts a skipped output chunk.
func (m *Backend) ReadError(error) {
	m.readErrors.Inc()
}

// Registry exposes the underlying registry.
func (m *Backend) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
