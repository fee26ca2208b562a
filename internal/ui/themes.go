package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme groups the styles used to render a report.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Title styles section headers.
	Title lipgloss.Style
	// Label styles field names such as "iterations".
	Label lipgloss.Style
	// Outcome styles outcome strings.
	Outcome lipgloss.Style
	// Value styles counts and probabilities.
	Value lipgloss.Style
	// Bar styles the frequency bars.
	Bar lipgloss.Style
	// Good marks values close to the expectation.
	Good lipgloss.Style
	// Warn marks values far from the expectation.
	Warn lipgloss.Style
	// Dim styles secondary text.
	Dim lipgloss.Style
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C00")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4488FF")),
		Outcome: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0E0E0")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")),
		Bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6600")),
		Good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}

	// NoColorTheme disables all styling.
	// Used when NO_COLOR is set or --no-color flag is provided.
	NoColorTheme = Theme{
		Name:    "none",
		Title:   lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
		Outcome: lipgloss.NewStyle(),
		Value:   lipgloss.NewStyle(),
		Bar:     lipgloss.NewStyle(),
		Good:    lipgloss.NewStyle(),
		Warn:    lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// InitTheme initializes the theme based on the noColor flag and environment.
// It respects the NO_COLOR environment variable (https://no-color.org/) for
// accessibility. If noColor is true or NO_COLOR is set, colors are disabled.
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if noColor {
		currentTheme = NoColorTheme
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = DarkTheme
}
