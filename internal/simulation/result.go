package simulation

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/outcome"
)

// EmpiricalResult is an observed count and the fraction of iterations it
// represents.
type EmpiricalResult struct {
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// NewEmpiricalResult derives the probability of count over iterations.
// iterations must be positive.
func NewEmpiricalResult(count, iterations int) EmpiricalResult {
	return EmpiricalResult{
		Count:       count,
		Probability: float64(count) / float64(iterations),
	}
}

// Expected returns the baseline bucket for k flips over iterations trials:
// count = iterations / 2^k (floor), probability = count / iterations.
//
// When iterations is not a multiple of 2^k the probability is below 1/2^k;
// TheoreticalProbability returns the closed form.
func Expected(k, iterations int) (EmpiricalResult, error) {
	if iterations <= 0 {
		return EmpiricalResult{}, apperrors.NewValidationError("iterations", "must be positive, got %d", iterations)
	}
	n, err := outcome.Count(k)
	if err != nil {
		return EmpiricalResult{}, err
	}
	return NewEmpiricalResult(iterations/n, iterations), nil
}

// TheoreticalProbability returns 1/2^k, or 0 when k is negative.
func TheoreticalProbability(k int) float64 {
	if k < 0 {
		return 0
	}
	return math.Ldexp(1, -k)
}

// OutcomeResult pairs an outcome with its empirical result.
type OutcomeResult struct {
	Outcome string `json:"outcome"`
	EmpiricalResult
}

// CoinFlipResult is the immutable outcome of one simulation run. Results are
// kept in ascending outcome order and every enumerated outcome is present.
type CoinFlipResult struct {
	flips      int
	iterations int
	expected   EmpiricalResult
	results    []OutcomeResult
}

// newCoinFlipResult converts a tally into a result. The tally is not retained.
func newCoinFlipResult(flips, iterations int, expected EmpiricalResult, tally map[string]int) *CoinFlipResult {
	results := make([]OutcomeResult, 0, len(tally))
	for o, count := range tally {
		results = append(results, OutcomeResult{Outcome: o, EmpiricalResult: NewEmpiricalResult(count, iterations)})
	}
	slices.SortFunc(results, func(a, b OutcomeResult) int { return strings.Compare(a.Outcome, b.Outcome) })
	return &CoinFlipResult{
		flips:      flips,
		iterations: iterations,
		expected:   expected,
		results:    results,
	}
}

// FlipsPerIteration returns k, the number of flips in each trial.
func (r *CoinFlipResult) FlipsPerIteration() int { return r.flips }

// Iterations returns the number of trials that were run.
func (r *CoinFlipResult) Iterations() int { return r.iterations }

// Expected returns the floor-division baseline for this run.
func (r *CoinFlipResult) Expected() EmpiricalResult { return r.expected }

// TheoreticalProbability returns 1/2^k for this run's flip count.
func (r *CoinFlipResult) TheoreticalProbability() float64 { return TheoreticalProbability(r.flips) }

// Len returns the number of distinct outcomes in the result.
func (r *CoinFlipResult) Len() int { return len(r.results) }

// Results returns a copy of the per-outcome results in ascending order.
func (r *CoinFlipResult) Results() []OutcomeResult { return slices.Clone(r.results) }

// Get returns the result for a single outcome.
func (r *CoinFlipResult) Get(o string) (EmpiricalResult, bool) {
	i, found := slices.BinarySearchFunc(r.results, o, func(e OutcomeResult, target string) int {
		return strings.Compare(e.Outcome, target)
	})
	if !found {
		return EmpiricalResult{}, false
	}
	return r.results[i].EmpiricalResult, true
}

// TotalCount sums the counts over every outcome. It equals Iterations for
// every result produced by a run.
func (r *CoinFlipResult) TotalCount() int {
	total := 0
	for _, e := range r.results {
		total += e.Count
	}
	return total
}

// MaxDeviation returns the largest absolute difference between an outcome's
// empirical probability and 1/2^k, together with the outcome it occurred on.
func (r *CoinFlipResult) MaxDeviation() (string, float64) {
	want := r.TheoreticalProbability()
	var worst string
	maxDev := -1.0
	for _, e := range r.results {
		if d := math.Abs(e.Probability - want); d > maxDev {
			worst, maxDev = e.Outcome, d
		}
	}
	if maxDev < 0 {
		return "", 0
	}
	return worst, maxDev
}

// Summary is the canonical external representation of a run. Results are an
// ordered list of {outcome, count, probability} objects.
type Summary struct {
	FlipsPerIteration      int             `json:"flips_per_iteration"`
	Iterations             int             `json:"iterations"`
	Expected               EmpiricalResult `json:"expected"`
	TheoreticalProbability float64         `json:"theoretical_probability"`
	Results                []OutcomeResult `json:"results"`
}

// Summary returns a detached, serializable copy of the result.
func (r *CoinFlipResult) Summary() Summary {
	return Summary{
		FlipsPerIteration:      r.flips,
		Iterations:             r.iterations,
		Expected:               r.expected,
		TheoreticalProbability: r.TheoreticalProbability(),
		Results:                r.Results(),
	}
}

// MarshalJSON encodes the result as its Summary.
func (r *CoinFlipResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Summary())
}

// Report is a Summary tagged with the identifier of the run that produced it.
type Report struct {
	RunID string `json:"run_id"`
	Summary
}

// NewReport tags r with runID.
func NewReport(runID string, r *CoinFlipResult) Report {
	return Report{RunID: runID, Summary: r.Summary()}
}
