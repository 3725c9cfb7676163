package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"speedsweep/internal/benchmark"
)

const namespace = "speedsweep"

// Metrics holds the sweep's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	TrialsTotal            *prometheus.CounterVec
	TrialDuration          prometheus.Histogram
	ConfigurationSpeedup   *prometheus.GaugeVec
	ConfigurationsComplete prometheus.Counter
}

var _ benchmark.Observer = (*Metrics)(nil)

// NewMetrics creates and registers all sweep metrics.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.TrialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Total number of trials by outcome",
		},
		[]string{"outcome"},
	)

	m.TrialDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trial_duration_seconds",
			Help:      "Wall-clock duration of a single trial in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	m.ConfigurationSpeedup = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "configuration_speedup",
			Help:      "Average speedup of the last completed configuration",
		},
		[]string{"threads"},
	)

	m.ConfigurationsComplete = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configurations_completed_total",
			Help:      "Total number of configurations averaged",
		},
	)

	m.registry.MustRegister(
		m.TrialsTotal,
		m.TrialDuration,
		m.ConfigurationSpeedup,
		m.ConfigurationsComplete,
	)
	return m
}

func (m *Metrics) ObserveTrial(threads int, outcome string, elapsed time.Duration) {
	m.TrialsTotal.WithLabelValues(outcome).Inc()
	m.TrialDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveConfiguration(result benchmark.ConfigurationResult) {
	m.ConfigurationSpeedup.WithLabelValues(strconv.Itoa(result.Threads)).Set(result.Average.InexactFloat64())
	m.ConfigurationsComplete.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on addr until ctx is done.
func StartMetricsServer(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	LogInfo("Starting metrics server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
