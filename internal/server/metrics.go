package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/coinflip/internal/metrics"
)

// Metrics tracks HTTP traffic on top of the simulation Recorder. Both share
// one registry, served by WritePrometheus.
type Metrics struct {
	recorder       *metrics.Recorder
	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	handler        http.Handler
}

// NewMetrics creates Metrics backed by a fresh Recorder.
func NewMetrics() *Metrics {
	return NewMetricsWithRecorder(metrics.NewRecorder())
}

// NewMetricsWithRecorder registers the HTTP metrics on rec's registry.
func NewMetricsWithRecorder(rec *metrics.Recorder) *Metrics {
	m := &Metrics{
		recorder: rec,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "active_requests",
			Help:      "HTTP requests currently being served.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "code"}),
		handler: rec.Handler(),
	}
	rec.Registerer().MustRegister(m.activeRequests, m.requestsTotal)
	return m
}

// Recorder returns the simulation recorder sharing this registry.
func (m *Metrics) Recorder() *metrics.Recorder { return m.recorder }

func (m *Metrics) gatherer() prometheus.Gatherer { return m.recorder.Gatherer() }

// IncrementActiveRequests marks a request as started.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests marks a request as finished.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

func (m *Metrics) observeRequest(path string, code int) {
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// WritePrometheus serves the registry in the Prometheus exposition format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		s.metrics.observeRequest(r.URL.Path, rec.code)
	}
}
