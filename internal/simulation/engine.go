package simulation

import (
	"context"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/coinflip/internal/coin"
	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/outcome"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks math/rand/v2 Source

// ProgressInterval is the number of trials between two progress reports.
const ProgressInterval = 1 << 14

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/agbru/coinflip/internal/simulation"

// ProgressCallback receives the completed fraction of a run, in [0, 1].
// It never sees intermediate tallies.
type ProgressCallback func(progress float64)

// Engine runs simulations against a single random source.
//
// An Engine is not safe for concurrent use: the random sources in
// math/rand/v2 are not synchronized. Create one Engine per goroutine.
type Engine struct {
	src      rand.Source
	logger   logging.Logger
	progress ProgressCallback
	tracer   trace.Tracer
}

// Option configures an Engine during construction.
type Option func(*Engine)

// WithSource sets the random source used for every coin draw.
func WithSource(src rand.Source) Option {
	return func(e *Engine) { e.src = src }
}

// WithSeed makes the engine deterministic: two engines built with the same
// seed produce identical results for identical inputs.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15) }
}

// WithLogger sets the logger used for debug-level run tracing.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithProgress registers a callback invoked every ProgressInterval trials
// and once more when the run completes.
func WithProgress(cb ProgressCallback) Option {
	return func(e *Engine) { e.progress = cb }
}

// WithTracerProvider sets the provider used for run spans. By default the
// global provider registered with otel is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// NewEngine builds an Engine. Without options it draws from a randomly
// seeded PCG source and logs nothing.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		e.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	if e.progress == nil {
		e.progress = func(float64) {}
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// Run performs iterations trials of k flips each and returns the aggregated
// result. It fails with apperrors.ErrInvalidArgument when k < 0 or
// iterations <= 0 and with apperrors.ErrOverflow when 2^k does not fit in an
// int; in both cases no trial is executed and the result is nil.
//
// ctx only carries the tracing span. A run is not cancellable once started.
func (e *Engine) Run(ctx context.Context, k, iterations int) (*CoinFlipResult, error) {
	_, span := e.tracer.Start(ctx, "simulation.Run", trace.WithAttributes(
		attribute.Int("coinflip.flips_per_iteration", k),
		attribute.Int("coinflip.iterations", iterations),
	))
	defer span.End()

	res, err := e.run(k, iterations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	worst, dev := res.MaxDeviation()
	span.SetAttributes(
		attribute.String("coinflip.max_deviation_outcome", worst),
		attribute.Float64("coinflip.max_deviation", dev),
	)
	return res, nil
}

func (e *Engine) run(k, iterations int) (*CoinFlipResult, error) {
	if k < 0 {
		return nil, apperrors.NewValidationError("flips", "must be non-negative, got %d", k)
	}
	if iterations <= 0 {
		return nil, apperrors.NewValidationError("iterations", "must be positive, got %d", iterations)
	}
	outcomes, err := outcome.Enumerate(k)
	if err != nil {
		return nil, err
	}
	expected, err := Expected(k, iterations)
	if err != nil {
		return nil, err
	}


	e.logger.Debug("simulation started",
		logging.Int("flips", k),
		logging.Int("iterations", iterations),
		logging.Int("outcomes", len(outcomes)))
	start := time.Now()

	// A trial's flips, read as binary digits with Heads as 0, are the index
	// of its outcome in the enumeration.
	counts := make([]int, len(outcomes))
	for i := 1; i <= iterations; i++ {
		idx := 0
		for range k {
			idx = idx<<1 | int(coin.Flip(e.src))
		}
		counts[idx]++
		if i%ProgressInterval == 0 {
			e.progress(float64(i) / float64(iterations))
		}
	}
	e.progress(1.0)

	tally := make(map[string]int, len(outcomes))
	for _, o := range outcomes {
		tally[o] = 0
	}
	for idx, c := range counts {
		tally[outcomes[idx]] += c
	}

	e.logger.Debug("simulation finished",
		logging.Int("flips", k),
		logging.Int("iterations", iterations),
		logging.Duration("elapsed", time.Since(start)))

	return newCoinFlipResult(k, iterations, expected, tally), nil
}

// Run is a convenience wrapper that runs a simulation on a fresh,
// randomly seeded Engine.
func Run(k, iterations int) (*CoinFlipResult, error) {
	return NewEngine().Run(context.Background(), k, iterations)
}
