// Package ui provides theme and color support for the application's user interface.
// It defines lipgloss styles for the report and honors NO_COLOR and --no-color.
//
// This package is designed to be a shared dependency for packages that need
// color output, reducing coupling between the simulation and presentation.
package ui
