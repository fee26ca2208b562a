package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/metrics"
)

// TestMetrics_SharesRecorderRegistry checks that run metrics recorded outside
// the server, as the CLI does, are exposed next to the HTTP metrics.
func TestMetrics_SharesRecorderRegistry(t *testing.T) {
	t.Parallel()
	rec := metrics.NewRecorder()
	m := NewMetricsWithRecorder(rec)
	require.Same(t, rec, m.Recorder())

	rec.ObserveRun(3, 800, 2*time.Millisecond, 0.01, nil)
	rec.ObserveRun(-1, 10, 0, 0, apperrors.NewValidationError("flips", "negative"))
	m.observeRequest("/simulate", http.StatusOK)

	resp := httptest.NewRecorder()
	m.WritePrometheus(resp, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	body := resp.Body.String()

	for _, want := range []string{
		`coinflip_runs_total{status="ok"} 1`,
		`coinflip_runs_total{status="invalid"} 1`,
		`coinflip_trials_total 800`,
		`coinflip_requests_total{code="200",path="/simulate"} 1`,
		`coinflip_active_requests 0`,
		"go_goroutines",
	} {
		assert.Contains(t, body, want)
	}
}

func TestHandler_RequestMetrics(t *testing.T) {
	t.Parallel()
	s := NewServer(testConfig(), nil, nil)

	serve(s, http.MethodGet, "/simulate?flips=2&iterations=40&seed=5", "")
	serve(s, http.MethodGet, "/simulate?flips=-1&iterations=10", "")
	serve(s, http.MethodGet, "/simulate?flips=-1&iterations=10", "")
	serve(s, http.MethodPost, "/outcomes?flips=1", "")

	tests := []struct {
		path, code string
		want       float64
	}{
		{"/simulate", "200", 1},
		{"/simulate", "400", 2},
		{"/outcomes", "405", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(s.metrics.requestsTotal.WithLabelValues(tt.path, tt.code))
		assert.Equal(t, tt.want, got, "requests_total{path=%s,code=%s}", tt.path, tt.code)
	}
	assert.Zero(t, testutil.ToFloat64(s.metrics.activeRequests))

	// Rejected requests never start a run.
	err := testutil.GatherAndCompare(s.metrics.gatherer(), strings.NewReader(`
# HELP coinflip_runs_total Simulation runs by status.
# TYPE coinflip_runs_total counter
coinflip_runs_total{status="ok"} 1
`), "coinflip_runs_total")
	assert.NoError(t, err)
}

func TestServer_metricsMiddleware_TracksInFlight(t *testing.T) {
	t.Parallel()
	s := NewServer(testConfig(), nil, nil)

	var inFlight float64
	handler := s.metricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		inFlight = testutil.ToFloat64(s.metrics.activeRequests)
		w.WriteHeader(http.StatusTeapot)
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", http.NoBody))

	assert.Equal(t, 1.0, inFlight, "request should be active while served")
	assert.Zero(t, testutil.ToFloat64(s.metrics.activeRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.requestsTotal.WithLabelValues("/brew", "418")))
}

func TestServer_writeError_StatusMapping(t *testing.T) {
	t.Parallel()
	s := NewServer(testConfig(), nil, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperrors.NewValidationError("flips", "bad"), http.StatusBadRequest},
		{"overflow", apperrors.OverflowError{Flips: 70, MaxFlips: 26}, http.StatusBadRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, tt.err)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}
