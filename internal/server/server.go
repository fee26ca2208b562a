// Package server exposes the simulation over a small read-only HTTP API:
//
//	GET /simulate?flips=K&iterations=N[&seed=S]  JSON report of one run
//	GET /outcomes?flips=K                        enumeration of 2^K outcomes
//	GET /healthz                                 liveness probe
//	GET /metrics                                 Prometheus exposition
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/coinflip/internal/config"
	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/outcome"
	"github.com/agbru/coinflip/internal/simulation"
)

const (
	// ShutdownTimeout bounds the graceful shutdown once the context ends.
	ShutdownTimeout = 10 * time.Second
	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout = 5 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	cfg      config.AppConfig
	security SecurityConfig
	metrics  *Metrics
	logger   logging.Logger
}

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// OutcomesResponse is the body of GET /outcomes.
type OutcomesResponse struct {
	FlipsPerIteration int      `json:"flips_per_iteration"`
	Count             int      `json:"count"`
	Outcomes          []string `json:"outcomes"`
}

// NewServer creates a Server. A nil logger or metrics gets a default.
func NewServer(cfg config.AppConfig, m *Metrics, logger logging.Logger) *Server {
	if m == nil {
		m = NewMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{cfg: cfg, security: DefaultSecurityConfig(), metrics: m, logger: logger}
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, SecurityMiddleware(s.security, s.metricsMiddleware(h)))
	}
	route("/simulate", s.handleSimulate)
	route("/outcomes", s.handleOutcomes)
	route("/healthz", s.handleHealth)
	route("/metrics", s.handleMetrics)
	return mux
}

// Start listens on the configured address and serves until ctx ends, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return apperrors.WrapError(err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	q := r.URL.Query()
	flips, err := queryInt(q.Get("flips"), "flips")
	if err != nil {
		s.writeError(w, err)
		return
	}
	iterations, err := queryInt(q.Get("iterations"), "iterations")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cfg.ValidateRun(flips, iterations); err != nil {
		s.writeError(w, err)
		return
	}

	opts := []simulation.Option{simulation.WithLogger(s.logger)}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, apperrors.NewValidationError("seed", "%q is not an unsigned integer", raw))
			return
		}
		opts = append(opts, simulation.WithSeed(seed))
	}

	runID := uuid.NewString()
	start := time.Now()
	res, err := simulation.NewEngine(opts...).Run(r.Context(), flips, iterations)
	elapsed := time.Since(start)

	var maxDev float64
	if res != nil {
		_, maxDev = res.MaxDeviation()
	}
	s.metrics.Recorder().ObserveRun(flips, iterations, elapsed, maxDev, err)
	if err != nil {
		s.logger.Error("simulation failed", err, logging.String("run_id", runID))
		s.writeError(w, err)
		return
	}

	s.logger.Info("simulation completed",
		logging.String("run_id", runID),
		logging.Int("flips", flips),
		logging.Int("iterations", iterations),
		logging.Duration("elapsed", elapsed))
	s.writeJSON(w, http.StatusOK, simulation.NewReport(runID, res))
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	flips, err := queryInt(r.URL.Query().Get("flips"), "flips")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if flips > s.cfg.MaxFlips {
		s.writeError(w, apperrors.NewValidationError("flips", "must be at most %d, got %d", s.cfg.MaxFlips, flips))
		return
	}
	outcomes, err := outcome.Enumerate(flips)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, OutcomesResponse{FlipsPerIteration: flips, Count: len(outcomes), Outcomes: outcomes})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	return false
}

// writeError maps err to a status code: 400 for bad input and overflow,
// 500 otherwise.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var ve apperrors.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	code := http.StatusInternalServerError
	if errors.Is(err, apperrors.ErrInvalidArgument) || errors.Is(err, apperrors.ErrOverflow) {
		code = http.StatusBadRequest
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, apperrors.NewValidationError(field, "missing")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(field, "%q is not an integer", raw)
	}
	return v, nil
}
