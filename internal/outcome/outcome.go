// Package outcome enumerates every flip sequence of a given length in
// canonical order.
//
// An outcome is the concatenation of k coin symbols in draw order. Outcomes
// are keyed by their string form, and for a fixed k there are exactly 2^k of
// them. Enumeration order is binary counting with Heads as 0 and the first
// flip as the most significant digit, which is also ascending lexicographic
// order because "H" < "T".
package outcome

import (
	"math/bits"

	"github.com/agbru/coinflip/internal/coin"
	apperrors "github.com/agbru/coinflip/internal/errors"
)

// MaxFlips is the largest k for which 2^k fits in an int.
const MaxFlips = bits.UintSize - 2

// MaxEnumerateFlips is the largest k Enumerate materializes. 2^26 outcomes
// already hold several GiB of strings; larger tables are refused with an
// OverflowError rather than exhausting memory.
const MaxEnumerateFlips = 26

// Count returns the number of distinct outcomes for k flips, 2^k.
func Count(k int) (int, error) {
	if k < 0 {
		return 0, apperrors.NewValidationError("flips", "must be non-negative, got %d", k)
	}
	if k > MaxFlips {
		return 0, apperrors.OverflowError{Flips: k, MaxFlips: MaxFlips}
	}
	return 1 << k, nil
}

// Enumerate returns all 2^k outcomes of k flips in ascending order.
// Enumerate(0) returns a single empty outcome. k above MaxEnumerateFlips
// fails with apperrors.ErrOverflow.
func Enumerate(k int) ([]string, error) {
	n, err := Count(k)
	if err != nil {
		return nil, err
	}
	if k > MaxEnumerateFlips {
		return nil, apperrors.OverflowError{Flips: k, MaxFlips: MaxEnumerateFlips}
	}

	outcomes := make([]string, n)
	buf := make([]byte, k)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			// Position j is digit k-1-j of i in base 2.
			buf[j] = coin.Symbols[(i>>(k-1-j))&1].Byte()
		}
		outcomes[i] = string(buf)
	}
	return outcomes, nil
}
