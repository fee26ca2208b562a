package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestFieldHelpers tests the Field constructor functions.
func TestFieldHelpers(t *testing.T) {
	t.Parallel()
	testErr := errors.New("bad seed")
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("outcome", "HTH"), "outcome", "HTH"},
		{"Int", Int("flips", 3), "flips", 3},
		{"Uint64", Uint64("seed", 12345678901234567890), "seed", uint64(12345678901234567890)},
		{"Float64", Float64("probability", 0.125), "probability", 0.125},
		{"Duration", Duration("elapsed", time.Second), "elapsed", time.Second},
		{"Err", Err(testErr), "error", testErr},
		{"Err with nil", Err(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}
}

// TestNewLogger tests the component logger constructor.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "simulation")

	logger.Info("run finished", Int("iterations", 8000))
	output := buf.String()

	for _, want := range []string{"simulation", "run finished", "8000"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
}

// TestZerologAdapter_WithLevel tests level filtering on a derived logger.
func TestZerologAdapter_WithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "server").WithLevel("warn")

	logger.Info("hidden")
	logger.Debug("also hidden")
	logger.Error("shown", errors.New("boom"))

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info and debug should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "shown") {
		t.Errorf("error should pass the filter, got: %s", output)
	}
}

// TestNew tests format selection and level filtering through New.
func TestNew(t *testing.T) {
	tests := []struct {
		format   string
		contains []string
	}{
		{FormatJSON, []string{`"component":"server"`, `"message":"server listening"`, `"addr":":8080"`}},
		{FormatConsole, []string{"server listening", "addr=", ":8080"}},
		{FormatPlain, []string{"server: ", "[INFO] server listening addr=:8080"}},
		{"", []string{"server listening", "addr="}},
	}
	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, "server", tt.format, "info")
			logger.Debug("hidden at info")
			logger.Info("server listening", String("addr", ":8080"))

			got := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output should contain %q, got: %s", want, got)
				}
			}
			if strings.Contains(got, "hidden at info") {
				t.Errorf("debug entry should be filtered at info level, got: %s", got)
			}
		})
	}
}

// TestNewStdLogger_Levels tests level filtering on the plain logger.
func TestNewStdLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(&buf, "repl", "error")
	logger.Debug("debug entry")
	logger.Info("info entry")
	logger.Error("error entry", errors.New("boom"))

	got := buf.String()
	if strings.Contains(got, "debug entry") || strings.Contains(got, "info entry") {
		t.Errorf("only errors should pass at error level, got: %s", got)
	}
	if !strings.Contains(got, "repl: ") || !strings.Contains(got, "[ERROR] error entry: boom") {
		t.Errorf("unexpected error line: %s", got)
	}

	buf.Reset()
	NewStdLogger(&buf, "repl", "debug").Debug("visible", Int("k", 3))
	if !strings.Contains(buf.String(), "[DEBUG] visible k=3") {
		t.Errorf("debug entry missing at debug level, got: %s", buf.String())
	}
}

// TestNewConsoleLogger tests level filtering on the console logger.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("info level hides debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewConsoleLogger(&buf, "cli", "info")
		logger.Debug("hidden")
		logger.Info("shown")
		if strings.Contains(buf.String(), "hidden") {
			t.Errorf("debug entry should be filtered, got: %s", buf.String())
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Errorf("info entry should be written, got: %s", buf.String())
		}
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewConsoleLogger(&buf, "cli", "chatty")
		logger.Debug("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got: %s", buf.String())
		}
	})

	t.Run("debug level shows debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewConsoleLogger(&buf, "cli", "DEBUG")
		logger.Debug("trial loop started")
		if !strings.Contains(buf.String(), "trial loop started") {
			t.Errorf("debug entry should be written, got: %s", buf.String())
		}
	})
}

// TestNewNopLogger verifies the nop logger writes nothing and does not panic.
func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored", String("k", "v"))
	logger.Error("ignored", errors.New("x"))
	logger.Debug("ignored")
	logger.Printf("%d", 1)
	logger.Println("ignored")
}

// TestZerologAdapter_Error tests the Error method.
func TestZerologAdapter_Error(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		err      error
		fields   []Field
		contains []string
	}{
		{
			name:     "with error",
			msg:      "run failed",
			err:      errors.New("iterations must be positive"),
			contains: []string{"run failed", "iterations must be positive", "error"},
		},
		{
			name:     "with nil error",
			msg:      "warning",
			contains: []string{"warning", "error"},
		},
		{
			name:     "with error and fields",
			msg:      "enumeration failed",
			err:      errors.New("overflow"),
			fields:   []Field{String("stage", "enumerate"), Int("flips", 70)},
			contains: []string{"enumeration failed", "overflow", "enumerate", "70"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "test")
			logger.Error(tt.msg, tt.err, tt.fields...)

			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got: %s", want, output)
				}
			}
		})
	}
}

// TestZerologAdapter_Debug tests the Debug method.
func TestZerologAdapter_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	logger.Debug("tally seeded", Int("outcomes", 8))

	output := buf.String()
	if !strings.Contains(output, "tally seeded") || !strings.Contains(output, "debug") {
		t.Errorf("Debug output should contain message and level, got: %s", output)
	}
}

// TestZerologAdapter_PrintfPrintln tests the printf-style helpers.
func TestZerologAdapter_PrintfPrintln(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")

	logger.Printf("flipped %d coins %d times", 3, 8000)
	logger.Println("heads", "tails")

	output := buf.String()
	if !strings.Contains(output, "flipped 3 coins 8000 times") {
		t.Errorf("Printf should format message, got: %s", output)
	}
	if !strings.Contains(output, "heads tails") {
		t.Errorf("Println should join arguments, got: %s", output)
	}
}

// TestZerologAdapter_applyFields tests field application with all supported types.
func TestZerologAdapter_applyFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		contains string
	}{
		{"string field", Field{Key: "str", Value: "HHT"}, "HHT"},
		{"int field", Field{Key: "num", Value: 42}, "42"},
		{"int64 field", Field{Key: "big", Value: int64(9223372036854775807)}, "9223372036854775807"},
		{"uint64 field", Field{Key: "huge", Value: uint64(18446744073709551615)}, "18446744073709551615"},
		{"float64 field", Field{Key: "p", Value: 0.125}, "0.125"},
		{"error field", Field{Key: "err", Value: errors.New("oops")}, "oops"},
		{"bool field", Field{Key: "flag", Value: true}, "true"},
		{"interface field", Field{Key: "data", Value: struct{ X int }{X: 1}}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "test")
			logger.Info("test", tt.field)

			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("applyFields should handle %s, output: %s", tt.name, buf.String())
			}
		})
	}
}

// TestStdLoggerAdapter tests each StdLoggerAdapter method.
func TestStdLoggerAdapter(t *testing.T) {
	tests := []struct {
		name     string
		log      func(Logger)
		contains []string
	}{
		{
			name:     "Info with fields",
			log:      func(l Logger) { l.Info("run finished", String("outcome", "TT")) },
			contains: []string{"[INFO]", "run finished", "outcome=TT"},
		},
		{
			name:     "Error with fields",
			log:      func(l Logger) { l.Error("run failed", errors.New("boom"), Int("flips", -1)) },
			contains: []string{"[ERROR]", "run failed", "boom", "flips=-1"},
		},
		{
			name:     "Debug",
			log:      func(l Logger) { l.Debug("trace", Int("line", 42)) },
			contains: []string{"[DEBUG]", "trace", "line=42"},
		},
		{
			name:     "Printf",
			log:      func(l Logger) { l.Printf("value is %d", 123) },
			contains: []string{"value is 123"},
		},
		{
			name:     "Println",
			log:      func(l Logger) { l.Println("a", "b", "c") },
			contains: []string{"a b c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStdLoggerAdapter(log.New(&buf, "", 0)))

			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

// TestLoggerInterface verifies both adapters implement the Logger interface.
func TestLoggerInterface(t *testing.T) {
	var buf bytes.Buffer
	var _ Logger = NewLogger(&buf, "test")
	var _ Logger = NewStdLoggerAdapter(log.New(&buf, "", 0))
	var _ Logger = NewNopLogger()
}
