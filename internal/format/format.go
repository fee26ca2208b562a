// Package format holds pure string formatting helpers shared by the CLI
// report and the HTTP API.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ProbabilityDecimals is the number of decimals used for probabilities in
// text output.
const ProbabilityDecimals = 5

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatProbability renders p with ProbabilityDecimals decimals.
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.*f", ProbabilityDecimals, p)
}

// FormatSignedDelta renders the difference between an observed and a
// reference probability with an explicit sign.
func FormatSignedDelta(observed, reference float64) string {
	return fmt.Sprintf("%+.*f", ProbabilityDecimals, observed-reference)
}

// FormatBar draws a horizontal bar of width cells for a value relative to max.
// Values outside [0, max] are clamped.
func FormatBar(value, max float64, width int) string {
	if width <= 0 {
		return ""
	}
	ratio := 0.0
	if max > 0 {
		ratio = math.Min(math.Max(value/max, 0), 1)
	}
	filled := int(math.Round(ratio * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
