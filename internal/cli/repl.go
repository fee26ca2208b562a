// Package cli renders simulation results for the terminal and provides the
// interactive session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/coinflip/internal/config"
	"github.com/agbru/coinflip/internal/format"
	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/outcome"
	"github.com/agbru/coinflip/internal/simulation"
	"github.com/agbru/coinflip/internal/ui"
)

// MaxListedOutcomes caps the "outcomes" command output.
const MaxListedOutcomes = 256

// RunObserver receives every completed or failed run of the session.
type RunObserver func(flips, iterations int, elapsed time.Duration, res *simulation.CoinFlipResult, err error)

// REPL is an interactive coin-flip session.
type REPL struct {
	cfg      config.AppConfig
	logger   logging.Logger
	observer RunObserver
	engine   *simulation.Engine
	seedDesc string
	in       io.Reader
	out      io.Writer
}

// NewREPL creates a session using the limits, seed and format from cfg.
func NewREPL(cfg config.AppConfig, logger logging.Logger, observer RunObserver) *REPL {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &REPL{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	if cfg.SeedSet {
		r.reseed(&cfg.Seed)
	} else {
		r.reseed(nil)
	}
	return r
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start reads commands until "exit" or EOF.
func (r *REPL) Start(ctx context.Context) {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	th := ui.GetCurrentTheme()

	for {
		fmt.Fprint(r.out, th.Good.Render("coinflip> "))

		input, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && strings.TrimSpace(input) != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(r.out, "%s\n", th.Warn.Render(fmt.Sprintf("Read error: %v", err)))
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.processCommand(ctx, input) {
			return
		}
	}
}

func (r *REPL) printBanner() {
	th := ui.GetCurrentTheme()
	fmt.Fprintf(r.out, "\n%s\n\n", th.Title.Render("Coin Flip Simulator - Interactive Mode"))
}

func (r *REPL) printHelp() {
	th := ui.GetCurrentTheme()
	cmd := th.Value.Render
	fmt.Fprintf(r.out, "%s\n", th.Label.Render("Available commands:"))
	fmt.Fprintf(r.out, "  %s    - Run N trials of K flips (or just type K N)\n", cmd("run <K> <N>"))
	fmt.Fprintf(r.out, "  %s   - List every outcome of K flips\n", cmd("outcomes <K>"))
	fmt.Fprintf(r.out, "  %s - Fix the seed, or return to a random source\n", cmd("seed <S|random>"))
	fmt.Fprintf(r.out, "  %s - Change the report format\n", cmd("format <text|json>"))
	fmt.Fprintf(r.out, "  %s         - Display current configuration\n", cmd("status"))
	fmt.Fprintf(r.out, "  %s           - Display this help\n", cmd("help"))
	fmt.Fprintf(r.out, "  %s    - Exit interactive mode\n", cmd("exit / quit"))
}

// processCommand executes one command line. It returns false on exit.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "run", "r":
		r.cmdRun(ctx, args)
	case "outcomes", "o":
		r.cmdOutcomes(args)
	case "seed":
		r.cmdSeed(args)
	case "format", "f":
		r.cmdFormat(args)
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%s\n", ui.GetCurrentTheme().Good.Render("Goodbye!"))
		return false
	default:
		if _, err := strconv.Atoi(cmd); err == nil {
			r.cmdRun(ctx, parts)
		} else {
			r.printError("Unknown command: %s", cmd)
			fmt.Fprintln(r.out, "Type help to see available commands.")
		}
	}
	return true
}

func (r *REPL) printError(msg string, a ...any) {
	fmt.Fprintf(r.out, "%s\n", ui.GetCurrentTheme().Warn.Render(fmt.Sprintf(msg, a...)))
}

func (r *REPL) cmdRun(ctx context.Context, args []string) {
	if len(args) != 2 {
		r.printError("Usage: run <K> <N>")
		return
	}
	flips, err1 := strconv.Atoi(args[0])
	iterations, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		r.printError("Invalid values: %s %s", args[0], args[1])
		return
	}
	if err := r.cfg.ValidateRun(flips, iterations); err != nil {
		r.printError("Error: %v", err)
		return
	}

	runID := uuid.NewString()
	start := time.Now()
	res, err := r.engine.Run(ctx, flips, iterations)
	elapsed := time.Since(start)
	if r.observer != nil {
		r.observer(flips, iterations, elapsed, res, err)
	}
	if err != nil {
		r.logger.Error("interactive run failed", err, logging.Int("flips", flips), logging.Int("iterations", iterations))
		r.printError("Error: %v", err)
		return
	}

	out := OutputConfig{Format: r.cfg.Format, Verbose: r.cfg.Verbose}
	if err := DisplayResult(r.out, runID, res, elapsed, out); err != nil {
		r.printError("Error: %v", err)
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdOutcomes(args []string) {
	if len(args) != 1 {
		r.printError("Usage: outcomes <K>")
		return
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		r.printError("Invalid value: %s", args[0])
		return
	}
	if k > r.cfg.MaxFlips {
		r.printError("Error: flips must be at most %d", r.cfg.MaxFlips)
		return
	}
	outcomes, err := outcome.Enumerate(k)
	if err != nil {
		r.printError("Error: %v", err)
		return
	}

	th := ui.GetCurrentTheme()
	fmt.Fprintf(r.out, "%s %s\n", th.Label.Render("Outcomes:"), th.Value.Render(format.FormatCount(len(outcomes))))
	for i, o := range outcomes {
		if i == MaxListedOutcomes {
			fmt.Fprintf(r.out, "%s\n", th.Dim.Render(fmt.Sprintf("... %d more", len(outcomes)-i)))
			break
		}
		if o == "" {
			o = `""`
		}
		fmt.Fprintf(r.out, "  %s\n", th.Outcome.Render(o))
	}
}

func (r *REPL) cmdSeed(args []string) {
	if len(args) != 1 {
		r.printError("Usage: seed <S|random>")
		return
	}
	if strings.EqualFold(args[0], "random") {
		r.reseed(nil)
	} else {
		seed, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			r.printError("Invalid seed: %s", args[0])
			return
		}
		r.reseed(&seed)
	}
	fmt.Fprintf(r.out, "Seed: %s\n", ui.GetCurrentTheme().Good.Render(r.seedDesc))
}

// reseed replaces the engine. A nil seed selects a random source.
func (r *REPL) reseed(seed *uint64) {
	opts := []simulation.Option{simulation.WithLogger(r.logger)}
	r.seedDesc = "random"
	if seed != nil {
		opts = append(opts, simulation.WithSeed(*seed))
		r.seedDesc = strconv.FormatUint(*seed, 10)
	}
	r.engine = simulation.NewEngine(opts...)
}

func (r *REPL) cmdFormat(args []string) {
	if len(args) != 1 || (args[0] != config.FormatText && args[0] != config.FormatJSON) {
		r.printError("Usage: format <%s|%s>", config.FormatText, config.FormatJSON)
		return
	}
	r.cfg.Format = args[0]
	fmt.Fprintf(r.out, "Format: %s\n", ui.GetCurrentTheme().Good.Render(r.cfg.Format))
}

func (r *REPL) cmdStatus() {
	th := ui.GetCurrentTheme()
	fmt.Fprintf(r.out, "\n%s\n", th.Label.Render("Current configuration:"))
	fmt.Fprintf(r.out, "  Seed:            %s\n", th.Value.Render(r.seedDesc))
	fmt.Fprintf(r.out, "  Format:          %s\n", th.Value.Render(r.cfg.Format))
	fmt.Fprintf(r.out, "  Max flips:       %s\n", th.Value.Render(strconv.Itoa(r.cfg.MaxFlips)))
	fmt.Fprintf(r.out, "  Max iterations:  %s\n", th.Value.Render(format.FormatCount(r.cfg.MaxIterations)))
	fmt.Fprintln(r.out)
}
