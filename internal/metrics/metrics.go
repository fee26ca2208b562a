// Package metrics exposes simulation counters through a Prometheus registry.
//
// Each Recorder owns its registry so that several recorders (one per test,
// or one per server) never collide on registration.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/agbru/coinflip/internal/errors"
)

// Namespace prefixes every metric name.
const Namespace = "coinflip"

// Run status label values.
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusOverflow = "overflow"
	StatusError    = "error"
)

// Recorder collects run-level metrics.
type Recorder struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	trials       prometheus.Counter
	draws        prometheus.Counter
	duration     prometheus.Histogram
	maxDeviation prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by status.",
		}, []string{"status"}),
		trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "trials_total",
			Help:      "Trials executed across all successful runs.",
		}),
		draws: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "coin_draws_total",
			Help:      "Coin draws consumed from the random source.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of successful simulation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		maxDeviation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_max_deviation",
			Help:      "Largest |empirical - 1/2^k| of the most recent successful run.",
		}),
	}
	r.registry.MustRegister(
		r.runs, r.trials, r.draws, r.duration, r.maxDeviation,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registerer returns the registry for components that add their own metrics.
func (r *Recorder) Registerer() prometheus.Registerer { return r.registry }

// Gatherer returns the registry for reading collected metrics.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// ObserveRun records the outcome of one run. maxDeviation is ignored when
// err is non-nil.
func (r *Recorder) ObserveRun(flips, iterations int, elapsed time.Duration, maxDeviation float64, err error) {
	status := StatusFor(err)
	r.runs.WithLabelValues(status).Inc()
	if err != nil {
		return
	}
	r.trials.Add(float64(iterations))
	r.draws.Add(float64(iterations) * float64(flips))
	r.duration.Observe(elapsed.Seconds())
	r.maxDeviation.Set(maxDeviation)
}

// StatusFor maps a run error to its status label.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, apperrors.ErrOverflow):
		return StatusOverflow
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return StatusInvalid
	default:
		return StatusError
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the text exposition format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return apperrors.WrapError(err, "write metrics to %s", path)
	}
	return nil
}
