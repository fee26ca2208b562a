// Package app wires configuration, the simulation engine and the output
// surfaces (one-shot CLI, interactive session, dashboard, HTTP API) together.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/coinflip/internal/cli"
	"github.com/agbru/coinflip/internal/config"
	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/metrics"
	"github.com/agbru/coinflip/internal/server"
	"github.com/agbru/coinflip/internal/simulation"
	"github.com/agbru/coinflip/internal/tui"
	"github.com/agbru/coinflip/internal/ui"
)

// Application represents the coinflip application instance.
type Application struct {
	Config      config.AppConfig
	ProgramName string
	ErrWriter   io.Writer
	Recorder    *metrics.Recorder
}

// New creates a new Application instance by parsing command-line arguments.
// args includes the program name.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "coinflip"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	return &Application{
		Config:      cfg,
		ProgramName: programName,
		ErrWriter:   errWriter,
		Recorder:    metrics.NewRecorder(),
	}, nil
}

// Run executes the application in the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.Serve:
		return a.runServe(ctx)
	case a.Config.Interactive:
		return a.runInteractive(ctx, out)
	case a.Config.TUI:
		return a.runTUI(ctx)
	default:
		return a.runOnce(ctx, out)
	}
}

func (a *Application) logLevel() string {
	if a.Config.Verbose {
		return "debug"
	}
	return a.Config.LogLevel
}

// newLogger builds a logger on ErrWriter in the configured format, or in
// fallback when none was configured.
func (a *Application) newLogger(component, fallback, level string) logging.Logger {
	format := a.Config.LogFormat
	if format == "" {
		format = fallback
	}
	return logging.New(a.ErrWriter, component, format, level)
}

// runServe starts the HTTP API and blocks until SIGINT or SIGTERM.
func (a *Application) runServe(ctx context.Context) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	logger := a.newLogger("server", logging.FormatJSON, a.logLevel())
	srv := server.NewServer(a.Config, server.NewMetricsWithRecorder(a.Recorder), logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server failed", err)
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// runInteractive starts the read-eval-print session on stdin.
func (a *Application) runInteractive(ctx context.Context, out io.Writer) int {
	logger := a.newLogger("repl", logging.FormatConsole, a.logLevel())
	observer := func(flips, iterations int, elapsed time.Duration, res *simulation.CoinFlipResult, err error) {
		a.observe(flips, iterations, elapsed, res, err)
	}
	repl := cli.NewREPL(a.Config, logger, observer)
	repl.SetOutput(out)
	repl.Start(ctx)
	return a.writeMetricsFile(logger)
}

// runTUI shows the run in the full-screen dashboard. Only errors are logged
// so the alternate screen stays readable.
func (a *Application) runTUI(ctx context.Context) int {
	logger := a.newLogger("tui", logging.FormatConsole, "error")
	code := tui.Run(ctx, a.Config, Version, logger, a.observe)
	if mcode := a.writeMetricsFile(logger); code == apperrors.ExitSuccess {
		code = mcode
	}
	return code
}

// runOnce performs a single simulation and renders it.
func (a *Application) runOnce(ctx context.Context, out io.Writer) int {
	logger := a.newLogger("cli", logging.FormatConsole, a.logLevel())
	cfg := a.Config

	opts := []simulation.Option{simulation.WithLogger(logger)}
	if cfg.SeedSet {
		opts = append(opts, simulation.WithSeed(cfg.Seed))
	}
	showProgress := !cfg.Quiet && cfg.Format == config.FormatText
	var stopProgress func()
	if showProgress {
		var progress simulation.ProgressCallback
		progress, stopProgress = cli.DisplayProgress(a.ErrWriter)
		opts = append(opts, simulation.WithProgress(progress))
	}

	runID := uuid.NewString()
	start := time.Now()
	res, err := simulation.NewEngine(opts...).Run(ctx, cfg.Flips, cfg.Iterations)
	elapsed := time.Since(start)
	if stopProgress != nil {
		stopProgress()
	}
	a.observe(cfg.Flips, cfg.Iterations, elapsed, res, err)

	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		fmt.Fprintln(a.ErrWriter, config.Usage(a.ProgramName))
		return apperrors.ExitCodeFor(err)
	}
	logger.Debug("run rendered",
		logging.String("run_id", runID),
		logging.Duration("elapsed", elapsed))

	outputCfg := cli.OutputConfig{
		Format:     cfg.Format,
		OutputFile: cfg.OutputFile,
		Quiet:      cfg.Quiet,
		Verbose:    cfg.Verbose,
	}
	if err := cli.DisplayResult(out, runID, res, elapsed, outputCfg); err != nil {
		logger.Error("failed to render result", err)
		return apperrors.ExitErrorGeneric
	}
	if err := cli.WriteReportToFile(runID, res, outputCfg); err != nil {
		logger.Error("failed to save report", err, logging.String("path", cfg.OutputFile))
		return apperrors.ExitErrorGeneric
	}
	if cfg.OutputFile != "" && !cfg.Quiet && cfg.Format == config.FormatText {
		th := ui.GetCurrentTheme()
		fmt.Fprintf(out, "\n%s %s\n", th.Good.Render("Report saved to:"), th.Value.Render(cfg.OutputFile))
	}
	return a.writeMetricsFile(logger)
}

func (a *Application) observe(flips, iterations int, elapsed time.Duration, res *simulation.CoinFlipResult, err error) {
	var maxDev float64
	if res != nil {
		_, maxDev = res.MaxDeviation()
	}
	a.Recorder.ObserveRun(flips, iterations, elapsed, maxDev, err)
}

func (a *Application) writeMetricsFile(logger logging.Logger) int {
	if a.Config.MetricsFile == "" {
		return apperrors.ExitSuccess
	}
	if err := a.Recorder.WriteTextfile(a.Config.MetricsFile); err != nil {
		logger.Error("failed to write metrics file", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
