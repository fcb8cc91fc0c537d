package metrics

import (
	"context"
	"strconv"

	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "gitsyncd"

// Metrics collects synchronization counters in its own registry.
type Metrics struct {
	registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
	triggers    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_cycles_total",
			Help:      "Synchronization cycles by result.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Failed synchronization cycles by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization cycles.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that reached the remote.",
		}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Sync triggers by whether the engine accepted them.",
		}, []string{"accepted"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles,
		m.failures,
		m.duration,
		m.lastSuccess,
		m.triggers,
	)

	return m
}

// Registry exposes the registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OnOutcome implements syncer.Listener.
func (m *Metrics) OnOutcome(_ context.Context, outcome syncer.Outcome) error {
	m.cycles.WithLabelValues(string(outcome.Result)).Inc()
	m.duration.Observe(outcome.Duration.Seconds())

	if outcome.Failed() {
		m.failures.WithLabelValues(string(outcome.ErrorKind)).Inc()
	}
	if outcome.Result == syncer.ResultSuccess || outcome.Result == syncer.ResultConflictResolved {
		m.SetLastSuccess(float64(outcome.Timestamp.Unix()))
	}

	return nil
}

// SetLastSuccess sets the last success gauge, e.g. from restored history.
func (m *Metrics) SetLastSuccess(unix float64) {
	m.lastSuccess.Set(unix)
}

// ObserveTrigger counts a trigger.
func (m *Metrics) ObserveTrigger(accepted bool) {
	m.triggers.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

var _ syncer.Listener = (*Metrics)(nil)
