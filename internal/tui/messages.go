package tui

import (
	"time"

	"github.com/agbru/coinflip/internal/simulation"
	"github.com/agbru/coinflip/internal/sysmon"
)

// ProgressMsg carries the completed fraction of the current run.
type ProgressMsg struct {
	Generation uint64
	Fraction   float64
}

// RunCompleteMsg is sent once a run has finished, successfully or not.
type RunCompleteMsg struct {
	Generation uint64
	RunID      string
	Result     *simulation.CoinFlipResult
	Elapsed    time.Duration
	Err        error
}

// TickMsg drives the elapsed timer and resource sampling.
type TickMsg time.Time

// SysStatsMsg carries a resource snapshot.
type SysStatsMsg sysmon.Stats
