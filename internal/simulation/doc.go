// Package simulation runs fair coin-flip trials and aggregates the empirical
// frequency of every outcome.
//
// A run seeds a tally with every outcome from [outcome.Enumerate] so that
// outcomes never observed still appear with a zero count, performs the
// requested number of trials sequentially, and converts the tally into an
// immutable [CoinFlipResult]. The expected result is derived by integer
// division of the iteration count by the number of outcomes.
package simulation
