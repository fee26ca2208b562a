// Package config parses the command line, the environment and an optional
// .env file into an AppConfig.
//
// Priority, highest first: command-line flags, COINFLIP_* environment
// variables, values from the .env file, built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/agbru/coinflip/internal/errors"
	"github.com/agbru/coinflip/internal/logging"
	"github.com/agbru/coinflip/internal/outcome"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "COINFLIP_"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	// DefaultMaxFlips bounds the outcome table at about 16M entries.
	DefaultMaxFlips = 24
	// DefaultMaxIterations bounds a single run.
	DefaultMaxIterations = 1_000_000_000
	// DefaultAddr is the listen address used by --serve.
	DefaultAddr = ":8080"
	// DefaultEnvFile is loaded when present; a missing default file is not an error.
	DefaultEnvFile = ".env"
)

// AppConfig holds the resolved configuration for one invocation.
type AppConfig struct {
	// Flips is the number of coin flips per iteration (k).
	Flips int
	// Iterations is the number of independent trials (N).
	Iterations int
	// Seed makes the run reproducible when SeedSet is true.
	Seed    uint64
	SeedSet bool
	// Format selects the report layout: "text" or "json".
	Format string
	// OutputFile receives a copy of the report when non-empty.
	OutputFile string
	Quiet      bool
	Verbose    bool
	NoColor    bool
	// MetricsFile receives a Prometheus textfile after the run when non-empty.
	MetricsFile string
	// Serve starts the HTTP API instead of running once.
	Serve bool
	Addr  string
	// Interactive starts the read-eval-print session.
	Interactive bool
	// TUI shows the run in a full-screen dashboard.
	TUI bool
	// MaxFlips and MaxIterations bound accepted inputs on every surface.
	MaxFlips      int
	MaxIterations int
	LogLevel      string
	// LogFormat selects json, console or plain log lines. Empty picks the
	// mode default: json for --serve, console otherwise.
	LogFormat string
	EnvFile       string
}

// Usage is the one-line synopsis printed on invalid input.
func Usage(programName string) string {
	return fmt.Sprintf("usage: %s flips_per_iteration iterations", programName)
}

// ParseConfig parses args (without the program name) into an AppConfig.
// Positional FLIPS ITERATIONS are accepted as well as -k/-n. On error the
// usage is written to errWriter. flag.ErrHelp is returned unchanged for -h.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := AppConfig{}
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.Usage = func() {
		fmt.Fprintln(errWriter, Usage(programName))
		fmt.Fprintln(errWriter, "\nOptions:")
		fs.PrintDefaults()
	}

	fs.IntVar(&cfg.Flips, "flips", 0, "Number of coin flips per iteration.")
	fs.IntVar(&cfg.Flips, "k", 0, "Number of coin flips per iteration (shorthand).")
	fs.IntVar(&cfg.Iterations, "iterations", 0, "Number of iterations (trials).")
	fs.IntVar(&cfg.Iterations, "n", 0, "Number of iterations (shorthand).")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "Seed for a reproducible run.")
	fs.StringVar(&cfg.Format, "format", FormatText, "Report format: text or json.")
	fs.StringVar(&cfg.OutputFile, "output", "", "Also write the report to this file.")
	fs.StringVar(&cfg.OutputFile, "o", "", "Also write the report to this file (shorthand).")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Print only the report.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Print only the report (shorthand).")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Show deviation details and debug logs.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Show deviation details and debug logs (shorthand).")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run.")
	fs.BoolVar(&cfg.Serve, "serve", false, "Start the HTTP API instead of running once.")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "Start an interactive session.")
	fs.BoolVar(&cfg.Interactive, "i", false, "Start an interactive session (shorthand).")
	fs.BoolVar(&cfg.TUI, "tui", false, "Show the run in a full-screen dashboard.")
	fs.StringVar(&cfg.Addr, "addr", DefaultAddr, "Listen address for --serve.")
	fs.IntVar(&cfg.MaxFlips, "max-flips", DefaultMaxFlips, "Largest accepted flips per iteration.")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", DefaultMaxIterations, "Largest accepted iteration count.")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error.")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format: json, console or plain (default json for --serve, console otherwise).")
	fs.StringVar(&cfg.EnvFile, "env-file", DefaultEnvFile, "Load environment variables from this file.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, err
		}
		return cfg, apperrors.NewValidationError("arguments", "%v", err)
	}

	if err := loadEnvFile(cfg.EnvFile, isFlagSet(fs, "env-file")); err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg, fs)
	cfg.SeedSet = cfg.SeedSet || isFlagSet(fs, "seed")

	if err := applyPositional(&cfg, fs); err != nil {
		fs.Usage()
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errWriter, Usage(programName))
		return cfg, err
	}
	return cfg, nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is only an error when the
// path was given explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return apperrors.NewConfigError("cannot read env file %q: %v", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.NewConfigError("cannot load env file %q: %v", path, err)
	}
	return nil
}

// applyPositional reads FLIPS ITERATIONS from the remaining arguments.
func applyPositional(cfg *AppConfig, fs *flag.FlagSet) error {
	rest := fs.Args()
	switch len(rest) {
	case 0:
		if cfg.Serve || cfg.Interactive {
			return nil
		}
		if !isFlagSetAny(fs, "flips", "k") && !isEnvSet("FLIPS") {
			return apperrors.NewValidationError("flips_per_iteration", "missing")
		}
		if !isFlagSetAny(fs, "iterations", "n") && !isEnvSet("ITERATIONS") {
			return apperrors.NewValidationError("iterations", "missing")
		}
		return nil
	case 2:
		if isFlagSetAny(fs, "flips", "k", "iterations", "n") {
			return apperrors.NewValidationError("arguments", "positional values cannot be combined with -k/-n")
		}
		flips, err := parseCount(rest[0], "flips_per_iteration")
		if err != nil {
			return err
		}
		iterations, err := parseCount(rest[1], "iterations")
		if err != nil {
			return err
		}
		cfg.Flips, cfg.Iterations = flips, iterations
		return nil
	default:
		return apperrors.NewValidationError("arguments", "expected 2 positional values, got %d", len(rest))
	}
}

func parseCount(s, field string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 63)
	if err != nil {
		return 0, apperrors.NewValidationError(field, "%q is not a non-negative integer", s)
	}
	return int(v), nil
}

// Validate checks ranges and enumerated values.
func (c AppConfig) Validate() error {
	if c.MaxFlips < 0 || c.MaxFlips > outcome.MaxEnumerateFlips {
		return apperrors.NewConfigError("--max-flips must be in [0, %d], got %d", outcome.MaxEnumerateFlips, c.MaxFlips)
	}
	if c.MaxIterations < 1 {
		return apperrors.NewConfigError("--max-iterations must be positive, got %d", c.MaxIterations)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return apperrors.NewConfigError("unknown format %q (want %s or %s)", c.Format, FormatText, FormatJSON)
	}
	if c.LogFormat != "" && !slices.Contains(logging.Formats, c.LogFormat) {
		return apperrors.NewConfigError("unknown log format %q (want one of %s)", c.LogFormat, strings.Join(logging.Formats, ", "))
	}
	if countTrue(c.Serve, c.Interactive, c.TUI) > 1 {
		return apperrors.NewConfigError("--serve, --interactive and --tui are mutually exclusive")
	}
	if c.Serve {
		if c.Addr == "" {
			return apperrors.NewConfigError("--addr must not be empty with --serve")
		}
		return nil
	}
	if c.Interactive {
		return nil
	}
	return c.ValidateRun(c.Flips, c.Iterations)
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// ValidateRun checks a single (flips, iterations) request against the
// configured limits. The HTTP API applies it to every request.
func (c AppConfig) ValidateRun(flips, iterations int) error {
	if flips < 0 || flips > c.MaxFlips {
		return apperrors.NewValidationError("flips_per_iteration", "must be in [0, %d], got %d", c.MaxFlips, flips)
	}
	if iterations < 1 || iterations > c.MaxIterations {
		return apperrors.NewValidationError("iterations", "must be in [1, %d], got %d", c.MaxIterations, iterations)
	}
	return nil
}
