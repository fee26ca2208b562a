package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/coinflip/internal/config"
	"github.com/agbru/coinflip/internal/simulation"
	"github.com/agbru/coinflip/internal/ui"
)

func seededResult(t *testing.T, k, iterations int) *simulation.CoinFlipResult {
	t.Helper()
	res, err := simulation.NewEngine(simulation.WithSeed(7)).Run(context.Background(), k, iterations)
	if err != nil {
		t.Fatalf("Run(%d, %d) returned error: %v", k, iterations, err)
	}
	return res
}

func TestFormatResultBlock_ZeroFlips(t *testing.T) {
	t.Parallel()
	res := seededResult(t, 0, 5)

	want := "{\n" +
		"    iterations: 5\n" +
		"    expected: {count: 5, probability: 1.00000}\n" +
		"    actual: {\n" +
		"        : {count: 5, probability: 1.00000}\n" +
		"    }\n" +
		"}"
	if got := FormatResultBlock(res); got != want {
		t.Errorf("FormatResultBlock() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatResultBlock_ListsEveryOutcomeInOrder(t *testing.T) {
	t.Parallel()
	res := seededResult(t, 2, 400)
	block := FormatResultBlock(res)

	if !strings.Contains(block, "expected: {count: 100, probability: 0.25000}") {
		t.Errorf("missing expected line:\n%s", block)
	}
	last := -1
	for _, o := range []string{"HH", "HT", "TH", "TT"} {
		idx := strings.Index(block, "        "+o+": {count: ")
		if idx < 0 {
			t.Fatalf("outcome %s missing from block:\n%s", o, block)
		}
		if idx < last {
			t.Errorf("outcome %s out of order", o)
		}
		last = idx
	}
}

func TestFormatJSONReport(t *testing.T) {
	t.Parallel()
	res := seededResult(t, 1, 10)

	out, err := FormatJSONReport("run-1", res)
	if err != nil {
		t.Fatalf("FormatJSONReport returned error: %v", err)
	}
	var decoded struct {
		RunID   string `json:"run_id"`
		Flips   int    `json:"flips_per_iteration"`
		Results []struct {
			Outcome string `json:"outcome"`
			Count   int    `json:"count"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if decoded.RunID != "run-1" || decoded.Flips != 1 || len(decoded.Results) != 2 {
		t.Errorf("unexpected report: %+v", decoded)
	}
	if decoded.Results[0].Outcome != "H" || decoded.Results[1].Outcome != "T" {
		t.Errorf("results not ordered: %+v", decoded.Results)
	}
}

func TestDisplayResult(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	defer ui.InitTheme(false)

	res := seededResult(t, 3, 8000)
	tests := []struct {
		name     string
		cfg      OutputConfig
		contains []string
		excludes []string
	}{
		{
			name:     "styled table",
			cfg:      OutputConfig{Format: config.FormatText},
			contains: []string{"Simulation Result", "Run: abc", "Outcome", "HHH", "TTT", "0.12500"},
			excludes: []string{"Max deviation"},
		},
		{
			name:     "verbose table",
			cfg:      OutputConfig{Format: config.FormatText, Verbose: true},
			contains: []string{"Max deviation from 1/2^k:", "Tallied trials: 8,000"},
		},
		{
			name:     "quiet text",
			cfg:      OutputConfig{Format: config.FormatText, Quiet: true},
			contains: []string{"iterations: 8000", "expected: {count: 1000, probability: 0.12500}"},
			excludes: []string{"Simulation Result"},
		},
		{
			name:     "json",
			cfg:      OutputConfig{Format: config.FormatJSON},
			contains: []string{`"run_id": "abc"`, `"flips_per_iteration": 3`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := DisplayResult(&buf, "abc", res, 1500*time.Microsecond, tt.cfg); err != nil {
				t.Fatalf("DisplayResult returned error: %v", err)
			}
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}
}

func TestDisplayResult_TruncatesLargeTables(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	defer ui.InitTheme(false)

	res := seededResult(t, 8, 1000)
	var buf bytes.Buffer
	if err := DisplayResult(&buf, "id", res, time.Second, OutputConfig{Format: config.FormatText}); err != nil {
		t.Fatalf("DisplayResult returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "... 192 more outcomes") {
		t.Errorf("expected truncation notice, got:\n%s", buf.String())
	}
}

func TestWriteReportToFile(t *testing.T) {
	t.Parallel()
	res := seededResult(t, 2, 100)

	t.Run("empty path is a no-op", func(t *testing.T) {
		t.Parallel()
		if err := WriteReportToFile("id", res, OutputConfig{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("text with header", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "report.txt")
		if err := WriteReportToFile("id-7", res, OutputConfig{Format: config.FormatText, OutputFile: path}); err != nil {
			t.Fatalf("WriteReportToFile returned error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		content := string(data)
		for _, s := range []string{"# Coin Flip Simulation", "# Run: id-7", "# Flips per iteration: 2", "iterations: 100"} {
			if !strings.Contains(content, s) {
				t.Errorf("report missing %q:\n%s", s, content)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.json")
		if err := WriteReportToFile("id-8", res, OutputConfig{Format: config.FormatJSON, OutputFile: path}); err != nil {
			t.Fatalf("WriteReportToFile returned error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		var report simulation.Report
		if err := json.Unmarshal(data, &report); err != nil {
			t.Fatalf("report is not JSON: %v", err)
		}
		if report.RunID != "id-8" || len(report.Results) != 4 {
			t.Errorf("unexpected report: %+v", report)
		}
	})
}
