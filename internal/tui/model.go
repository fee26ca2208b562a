// Package tui implements the terminal dashboard: a progress bar while a run
// executes, the outcome table once it completes, and live resource usage.
package tui

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/coinflip/internal/cli"
	"github.com/agbru/coinflip/internal/config"
	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/format"
	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/simulation"
)

// Layout constants for the dashboard.
const (
	defaultWidth    = 80
	defaultHeight   = 24
	chromeHeight    = 10 // header, progress, run and table headers, sys line, help, borders
	minTableRows    = 4
	tableBarWidth   = 20
	historyDivisor  = 4
	progressPadding = 12
)

// Model is the root bubbletea model for the dashboard.
type Model struct {
	ctx      context.Context
	cfg      config.AppConfig
	version  string
	logger   logging.Logger
	observer cli.RunObserver
	ref      *programRef

	keymap KeyMap
	help   help.Model
	bar    progress.Model

	seed       uint64
	generation uint64
	running    bool
	fraction   float64
	started    time.Time
	elapsed    time.Duration

	runID  string
	result *simulation.CoinFlipResult
	err    error

	cpu        *History
	mem        *History
	heapAlloc  uint64
	goroutines int

	width  int
	height int
}

// NewModel creates a dashboard for cfg.Flips x cfg.Iterations. Without a
// configured seed a random one is drawn so that every run shown can be
// reproduced with --seed.
func NewModel(ctx context.Context, cfg config.AppConfig, version string, logger logging.Logger, observer cli.RunObserver) Model {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	seed := cfg.Seed
	if !cfg.SeedSet {
		seed = rand.Uint64()
	}
	m := Model{
		ctx:      ctx,
		cfg:      cfg,
		version:  version,
		logger:   logger,
		observer: observer,
		ref:      &programRef{},
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		seed:     seed,
		running:  true,
		started:  time.Now(),
		cpu:      NewHistory(defaultWidth / historyDivisor),
		mem:      NewHistory(defaultWidth / historyDivisor),
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Init starts the first run and the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), sampleSysStatsCmd(), m.startRun())
}

func (m Model) startRun() tea.Cmd {
	return runCmd(m.ctx, m.ref, m.logger, runSpec{
		generation: m.generation,
		flips:      m.cfg.Flips,
		iterations: m.cfg.Iterations,
		seed:       m.seed,
	})
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case ProgressMsg:
		if msg.Generation == m.generation && m.running {
			m.fraction = msg.Fraction
		}
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil // stale message from a previous run
		}
		m.running = false
		m.fraction = 1
		m.elapsed = msg.Elapsed
		m.runID, m.result, m.err = msg.RunID, msg.Result, msg.Err
		if m.observer != nil {
			m.observer(m.cfg.Flips, m.cfg.Iterations, msg.Elapsed, msg.Result, msg.Err)
		}
		if msg.Err != nil {
			m.logger.Error("dashboard run failed", msg.Err, logging.Uint64("seed", m.seed))
		}
		return m, nil

	case TickMsg:
		if m.running {
			m.elapsed = time.Since(m.started)
		}
		return m, tea.Batch(sampleSysStatsCmd(), tickCmd())

	case SysStatsMsg:
		m.cpu.Push(msg.CPUPercent)
		m.mem.Push(msg.MemPercent)
		m.heapAlloc = msg.HeapAlloc
		m.goroutines = msg.Goroutines
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keymap.Rerun), key.Matches(msg, m.keymap.Reseed):
		// A run cannot be interrupted; wait for it to finish.
		if m.running {
			return m, nil
		}
		if key.Matches(msg, m.keymap.Reseed) {
			m.seed = rand.Uint64()
		}
		m.generation++
		m.running = true
		m.fraction = 0
		m.started = time.Now()
		m.elapsed = 0
		m.runID, m.result, m.err = "", nil, nil
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.bar.Width = max(width-progressPadding, 10)
	m.help.Width = width
	m.cpu.SetLimit(width / historyDivisor)
	m.mem.SetLimit(width / historyDivisor)
}

func (m Model) tableRows() int {
	return max(m.height-chromeHeight, minTableRows)
}

// View renders the dashboard.
func (m Model) View() string {
	sections := []string{
		m.viewHeader(),
		m.viewProgress(),
		panelStyle.Width(max(m.width-2, 0)).Render(m.viewBody()),
		m.viewSysStats(),
		m.help.View(m.keymap),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	title := "Coin Flip Monitor"
	if m.version != "" && m.version != "dev" {
		title += " " + m.version
	}

	var status string
	switch {
	case m.running:
		status = statusRunningStyle.Render("RUNNING")
	case m.err != nil:
		status = statusErrorStyle.Render("ERROR")
	default:
		status = statusDoneStyle.Render("DONE")
	}

	return headerStyle.Render(title) + dimStyle.Render(" | ") +
		labelStyle.Render("k=") + valueStyle.Render(fmt.Sprint(m.cfg.Flips)) + " " +
		labelStyle.Render("N=") + valueStyle.Render(format.FormatCount(m.cfg.Iterations)) + " " +
		labelStyle.Render("seed=") + valueStyle.Render(fmt.Sprint(m.seed)) + dimStyle.Render(" | ") +
		labelStyle.Render("Elapsed: ") + valueStyle.Render(format.FormatExecutionDuration(m.elapsed)) + dimStyle.Render(" | ") +
		status
}

func (m Model) viewProgress() string {
	return " " + m.bar.ViewAs(m.fraction) + valueStyle.Render(fmt.Sprintf(" %6.2f%%", m.fraction*100))
}

func (m Model) viewBody() string {
	switch {
	case m.err != nil:
		return statusErrorStyle.Render("Error: " + m.err.Error())
	case m.result == nil:
		return dimStyle.Render(fmt.Sprintf("Simulating %s trials of %d flips...",
			format.FormatCount(m.cfg.Iterations), m.cfg.Flips))
	default:
		return m.viewResult()
	}
}

func (m Model) viewResult() string {
	res := m.result
	theoretical := res.TheoreticalProbability()
	expected := res.Expected()
	results := res.Results()

	maxProb := theoretical
	for _, r := range results {
		maxProb = max(maxProb, r.Probability)
	}
	width := max(len("Outcome"), res.FlipsPerIteration())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Run:"), dimStyle.Render(m.runID))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Expected:"), valueStyle.Render(cli.FormatEmpirical(expected)))
	fmt.Fprintf(&b, "%s\n", labelStyle.Render(fmt.Sprintf("%-*s  %12s  %11s  %11s", width, "Outcome", "Count", "Probability", "Delta")))

	rows := m.tableRows()
	for i, r := range results {
		if i == rows {
			fmt.Fprintf(&b, "%s", dimStyle.Render(fmt.Sprintf("... %d more outcomes", len(results)-i)))
			break
		}
		deltaStyle := aboveStyle
		if r.Count < expected.Count {
			deltaStyle = belowStyle
		}
		name := r.Outcome
		if name == "" {
			name = `""`
		}
		fmt.Fprintf(&b, "%s  %s  %s  %s  %s\n",
			outcomeStyle.Render(fmt.Sprintf("%-*s", width, name)),
			valueStyle.Render(fmt.Sprintf("%12s", format.FormatCount(r.Count))),
			valueStyle.Render(fmt.Sprintf("%11s", format.FormatProbability(r.Probability))),
			deltaStyle.Render(fmt.Sprintf("%11s", format.FormatSignedDelta(r.Probability, theoretical))),
			barStyle.Render(format.FormatBar(r.Probability, maxProb, tableBarWidth)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewSysStats() string {
	return fmt.Sprintf(" %s %s %s  %s %s %s  %s %s  %s %s",
		labelStyle.Render("CPU"), barStyle.Render(RenderSparkline(m.cpu.Values())), valueStyle.Render(fmt.Sprintf("%5.1f%%", m.cpu.Last())),
		labelStyle.Render("MEM"), barStyle.Render(RenderSparkline(m.mem.Values())), valueStyle.Render(fmt.Sprintf("%5.1f%%", m.mem.Last())),
		labelStyle.Render("Heap"), valueStyle.Render(formatBytes(m.heapAlloc)),
		labelStyle.Render("Goroutines"), valueStyle.Render(fmt.Sprint(m.goroutines)))
}

// formatBytes renders n in binary units.
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Run is the public entry point for the dashboard mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, cfg config.AppConfig, version string, logger logging.Logger, observer cli.RunObserver) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, cfg, version, logger, observer)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	// Inject the program reference before running so the progress callback can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if err != nil {
		model.logger.Error("dashboard failed", err)
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok && m.err != nil {
		return apperrors.ExitCodeFor(m.err)
	}
	return apperrors.ExitSuccess
}
