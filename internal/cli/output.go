// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     They are pure functions suitable for composition.
//     Examples: [FormatResultBlock], [FormatJSONReport].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteReportToFile].

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agbru/coinflip/internal/config"
	"github.com/agbru/coinflip/internal/format"
	"github.com/agbru/coinflip/internal/simulation"
	"github.com/agbru/coinflip/internal/ui"
)

const (
	// BarWidth is the width in cells of the frequency bars.
	BarWidth = 30
	// MaxDisplayedOutcomes caps the rows of the styled table. Larger results
	// are still written in full by the plain and JSON formats.
	MaxDisplayedOutcomes = 64
	// blockIndent matches the four-space indentation of the plain block.
	blockIndent = "    "
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// Format is config.FormatText or config.FormatJSON.
	Format string
	// OutputFile is the path to save the report (empty for no file output).
	OutputFile string
	// Quiet prints only the plain block or the JSON document.
	Quiet bool
	// Verbose adds deviation details to the styled table.
	Verbose bool
}

// FormatEmpirical renders {count: N, probability: P} with five decimals.
func FormatEmpirical(e simulation.EmpiricalResult) string {
	return fmt.Sprintf("{count: %d, probability: %s}", e.Count, format.FormatProbability(e.Probability))
}

// FormatResultBlock renders the plain, uncolored report block:
//
//	{
//	    iterations: 8000
//	    expected: {count: 1000, probability: 0.12500}
//	    actual: {
//	        HHH: {count: 987, probability: 0.12338}
//	        ...
//	    }
//	}
func FormatResultBlock(res *simulation.CoinFlipResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{\n%siterations: %d\n", blockIndent, res.Iterations())
	fmt.Fprintf(&b, "%sexpected: %s\n", blockIndent, FormatEmpirical(res.Expected()))
	fmt.Fprintf(&b, "%sactual: {\n", blockIndent)
	for _, r := range res.Results() {
		fmt.Fprintf(&b, "%s%s%s: %s\n", blockIndent, blockIndent, r.Outcome, FormatEmpirical(r.EmpiricalResult))
	}
	fmt.Fprintf(&b, "%s}\n}", blockIndent)
	return b.String()
}

// FormatJSONReport renders the canonical JSON document for a run.
func FormatJSONReport(runID string, res *simulation.CoinFlipResult) (string, error) {
	data, err := json.MarshalIndent(simulation.NewReport(runID, res), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(data), nil
}

// FormatReport renders the report in the configured format without styling.
func FormatReport(runID string, res *simulation.CoinFlipResult, cfg OutputConfig) (string, error) {
	if cfg.Format == config.FormatJSON {
		return FormatJSONReport(runID, res)
	}
	return FormatResultBlock(res), nil
}

// DisplayResult writes the report for one run to out. Quiet text mode and
// JSON mode print the unstyled report; otherwise a styled table is drawn.
func DisplayResult(out io.Writer, runID string, res *simulation.CoinFlipResult, elapsed time.Duration, cfg OutputConfig) error {
	if cfg.Quiet || cfg.Format == config.FormatJSON {
		report, err := FormatReport(runID, res, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, report)
		return nil
	}
	displayTable(out, runID, res, elapsed, cfg.Verbose)
	return nil
}

func displayTable(out io.Writer, runID string, res *simulation.CoinFlipResult, elapsed time.Duration, verbose bool) {
	th := ui.GetCurrentTheme()
	theoretical := res.TheoreticalProbability()

	fmt.Fprintf(out, "\n%s\n", th.Title.Render("--- Simulation Result ---"))
	fmt.Fprintf(out, "%s %s\n", th.Label.Render("Run:"), th.Dim.Render(runID))
	fmt.Fprintf(out, "%s %s   %s %s   %s %s\n",
		th.Label.Render("Flips per iteration:"), th.Value.Render(fmt.Sprint(res.FlipsPerIteration())),
		th.Label.Render("Iterations:"), th.Value.Render(format.FormatCount(res.Iterations())),
		th.Label.Render("Duration:"), th.Value.Render(format.FormatExecutionDuration(elapsed)))
	fmt.Fprintf(out, "%s %s %s\n",
		th.Label.Render("Expected:"), th.Value.Render(FormatEmpirical(res.Expected())),
		th.Dim.Render("(1/2^k = "+format.FormatProbability(theoretical)+")"))

	results := res.Results()
	maxProb := theoretical
	for _, r := range results {
		maxProb = max(maxProb, r.Probability)
	}
	width := max(len(" Outcome"), res.FlipsPerIteration())

	fmt.Fprintf(out, "\n%-*s  %12s  %11s  %11s\n", width, "Outcome", "Count", "Probability", "Delta")
	for i, r := range results {
		if i == MaxDisplayedOutcomes {
			fmt.Fprintf(out, "%s\n", th.Dim.Render(fmt.Sprintf("... %d more outcomes (use --format json or -q for the full list)", len(results)-i)))
			break
		}
		deltaStyle := th.Good
		if r.Count < res.Expected().Count {
			deltaStyle = th.Warn
		}
		name := r.Outcome
		if name == "" {
			name = `""`
		}
		fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
			th.Outcome.Render(fmt.Sprintf("%-*s", width, name)),
			th.Value.Render(fmt.Sprintf("%12s", format.FormatCount(r.Count))),
			th.Value.Render(fmt.Sprintf("%11s", format.FormatProbability(r.Probability))),
			deltaStyle.Render(fmt.Sprintf("%11s", format.FormatSignedDelta(r.Probability, theoretical))),
			th.Bar.Render(format.FormatBar(r.Probability, maxProb, BarWidth)))
	}

	if verbose {
		worst, dev := res.MaxDeviation()
		fmt.Fprintf(out, "\n%s %s on %s\n", th.Label.Render("Max deviation from 1/2^k:"),
			th.Value.Render(format.FormatProbability(dev)), th.Outcome.Render(worst))
		fmt.Fprintf(out, "%s %s\n", th.Label.Render("Tallied trials:"), th.Value.Render(format.FormatCount(res.TotalCount())))
	}
}

// WriteReportToFile writes the unstyled report to cfg.OutputFile, creating
// parent directories as needed. It is a no-op when OutputFile is empty.
func WriteReportToFile(runID string, res *simulation.CoinFlipResult, cfg OutputConfig) error {
	if cfg.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(cfg.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	report, err := FormatReport(runID, res, cfg)
	if err != nil {
		return err
	}
	if cfg.Format != config.FormatJSON {
		header := fmt.Sprintf("# Coin Flip Simulation\n# Generated: %s\n# Run: %s\n# Flips per iteration: %d\n\n",
			time.Now().Format(time.RFC3339), runID, res.FlipsPerIteration())
		report = header + report
	}
	if err := os.WriteFile(cfg.OutputFile, []byte(report+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
