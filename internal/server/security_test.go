package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve sends one request through the routed handler of s.
func serve(s *Server, method, target, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandler_SecurityHeaders(t *testing.T) {
	t.Parallel()
	s := NewServer(testConfig(), nil, nil)

	tests := []struct {
		name   string
		method string
		target string
		code   int
	}{
		{"successful run", http.MethodGet, "/simulate?flips=2&iterations=10&seed=1", http.StatusOK},
		{"rejected flips", http.MethodGet, "/simulate?flips=-1&iterations=10", http.StatusBadRequest},
		{"outcomes above limit", http.MethodGet, "/outcomes?flips=7", http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/healthz", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.method, tt.target, "")
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code == http.StatusNotFound {
				// Unrouted paths never reach the middleware.
				assert.Empty(t, rec.Header().Get("X-Frame-Options"))
				return
			}
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
			assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
			assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
		})
	}
}

func TestHandler_PreflightSkipsSimulation(t *testing.T) {
	t.Parallel()
	s := NewServer(testConfig(), nil, nil)

	rec := serve(s, http.MethodOptions, "/simulate?flips=3&iterations=100", "https://ui.example")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))

	runs, err := testutil.GatherAndCount(s.metrics.gatherer(), "coinflip_runs_total")
	require.NoError(t, err)
	assert.Zero(t, runs, "a preflight must not run a simulation")
	assert.Zero(t, testutil.CollectAndCount(s.metrics.requestsTotal), "a preflight is not counted as a request")
}

func TestHandler_CORS(t *testing.T) {
	t.Parallel()

	t.Run("default config answers any origin", func(t *testing.T) {
		s := NewServer(testConfig(), nil, nil)
		rec := serve(s, http.MethodGet, "/outcomes?flips=2", "https://ui.example")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Vary"))
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		s := NewServer(testConfig(), nil, nil)
		s.security = SecurityConfig{
			EnableCORS:     true,
			AllowedOrigins: []string{"https://ui.example"},
			AllowedMethods: []string{http.MethodGet},
		}
		rec := serve(s, http.MethodGet, "/outcomes?flips=2", "https://ui.example")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no CORS headers", func(t *testing.T) {
		s := NewServer(testConfig(), nil, nil)
		s.security = SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"https://ui.example"}}
		for _, origin := range []string{"https://evil.example", ""} {
			rec := serve(s, http.MethodGet, "/outcomes?flips=2", origin)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	})

	t.Run("disabled CORS keeps hardening headers", func(t *testing.T) {
		s := NewServer(testConfig(), nil, nil)
		s.security = SecurityConfig{AllowedOrigins: []string{"*"}}
		rec := serve(s, http.MethodGet, "/outcomes?flips=2", "https://ui.example")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})
}
