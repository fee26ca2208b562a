package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/coinflip/internal/ui"
)

// Style variables for the dashboard, rebuilt from the ui theme by
// initTUIStyles.
var (
	panelStyle         lipgloss.Style
	headerStyle        lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	outcomeStyle       lipgloss.Style
	barStyle           lipgloss.Style
	dimStyle           lipgloss.Style
	aboveStyle         lipgloss.Style
	belowStyle         lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusDoneStyle    lipgloss.Style
	statusErrorStyle   lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all styles from the current ui theme.
// Called at package init and again from Run after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Label.GetForeground()).
		Padding(0, 1)
	headerStyle = t.Title.Padding(0, 1)
	labelStyle = t.Label
	valueStyle = t.Value
	outcomeStyle = t.Outcome
	barStyle = t.Bar
	dimStyle = t.Dim
	aboveStyle = t.Good
	belowStyle = t.Warn
	statusRunningStyle = t.Good.Bold(true)
	statusDoneStyle = t.Title
	statusErrorStyle = t.Warn.Bold(true)
}
