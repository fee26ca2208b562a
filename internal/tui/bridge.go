package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/simulation"
	"github.com/agbru/coinflip/internal/sysmon"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the engine's progress callback can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe). It is a no-op
// before SetProgram.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// runSpec describes one run launched from the dashboard.
type runSpec struct {
	generation uint64
	flips      int
	iterations int
	seed       uint64
}

// runCmd runs the simulation off the UI goroutine, forwarding progress
// through ref, and reports completion as a RunCompleteMsg.
func runCmd(ctx context.Context, ref *programRef, logger logging.Logger, spec runSpec) tea.Cmd {
	return func() tea.Msg {
		engine := simulation.NewEngine(
			simulation.WithSeed(spec.seed),
			simulation.WithLogger(logger),
			simulation.WithProgress(func(fraction float64) {
				ref.Send(ProgressMsg{Generation: spec.generation, Fraction: fraction})
			}),
		)
		runID := uuid.NewString()
		start := time.Now()
		res, err := engine.Run(ctx, spec.flips, spec.iterations)
		return RunCompleteMsg{
			Generation: spec.generation,
			RunID:      runID,
			Result:     res,
			Elapsed:    time.Since(start),
			Err:        err,
		}
	}
}

// tickCmd returns a command that sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleSysStatsCmd reads resource usage and returns a SysStatsMsg.
func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg(sysmon.Sample())
	}
}
