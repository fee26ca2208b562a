package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/coinflip/internal/format"
	"github.com/agbru/coinflip/internal/simulation"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the spinner.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner abstracts a terminal spinner so progress display can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() {
	rs.s.Start()
}

func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner. The
// spinner redraws from its own goroutine, so the write is locked.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// FormatProgress renders a progress line: bar, percentage and an ETA once
// enough of the run has elapsed to estimate one.
func FormatProgress(fraction float64, elapsed time.Duration) string {
	fraction = min(max(fraction, 0), 1)
	line := fmt.Sprintf(" %s %6.2f%%", format.FormatBar(fraction, 1, ProgressBarWidth), fraction*100)
	if fraction > 0 && fraction < 1 {
		eta := time.Duration(float64(elapsed) * (1 - fraction) / fraction)
		line += " ETA " + format.FormatExecutionDuration(eta.Round(time.Millisecond))
	}
	return line
}

// DisplayProgress starts a spinner on out and returns the callback the
// engine reports to, plus a stop function that halts the spinner and prints
// the final line. Stop is safe to call more than once.
func DisplayProgress(out io.Writer) (simulation.ProgressCallback, func()) {
	s := newSpinner(spinner.WithWriter(out), spinner.WithHiddenCursor(true))
	start := time.Now()
	s.UpdateSuffix(FormatProgress(0, 0))
	s.Start()

	var (
		mu   sync.Mutex
		last float64
	)
	cb := func(fraction float64) {
		mu.Lock()
		last = fraction
		mu.Unlock()
		s.UpdateSuffix(FormatProgress(fraction, time.Since(start)))
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.Stop()
			mu.Lock()
			final := last
			mu.Unlock()
			fmt.Fprintf(out, "%s\n", FormatProgress(final, time.Since(start)))
		})
	}
	return cb, stop
}
