// Package coin defines the two-valued Coin symbol and the fair draw that
// produces it.
package coin

import "math/rand/v2"

// Coin is the result of a single flip.
type Coin uint8

const (
	// Heads sorts before Tails in every canonical ordering.
	Heads Coin = iota
	Tails
)

// Symbols lists every coin face in canonical order.
var Symbols = [2]Coin{Heads, Tails}

// String returns the single-character symbol for the coin face.
func (c Coin) String() string {
	if c == Heads {
		return "H"
	}
	return "T"
}

// Byte returns the symbol as a byte, for building outcome strings without
// intermediate allocations.
func (c Coin) Byte() byte {
	if c == Heads {
		return 'H'
	}
	return 'T'
}

// Flip draws one fair coin from src. It consumes exactly one Uint64 from the
// source and decides on the top bit, which is uniform for every source in
// math/rand/v2.
func Flip(src rand.Source) Coin {
	if src.Uint64()>>63 == 0 {
		return Heads
	}
	return Tails
}
