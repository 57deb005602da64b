// Package ui renders the interactive surfaces: the bootstrap progress view
// and the listener picker. Both degrade to plain output when stdout is not
// a terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	green  = lipgloss.Color("#8BC34A")
	red    = lipgloss.Color("#e53935")
	yellow = lipgloss.Color("#FFC107")
	blue   = lipgloss.Color("#2196F3")
	grey   = lipgloss.Color("#6b7280")
)

// Styles holds the styled components shared by the views.
type Styles struct {
	Title    lipgloss.Style
	Running  lipgloss.Style
	Done     lipgloss.Style
	Failed   lipgloss.Style
	Pending  lipgloss.Style
	Muted    lipgloss.Style
	Address  lipgloss.Style
	Selected lipgloss.Style
	Warning  lipgloss.Style
}

// DefaultStyles returns the palette used by every view.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true),
		Running:  lipgloss.NewStyle().Foreground(blue),
		Done:     lipgloss.NewStyle().Foreground(green),
		Failed:   lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:  lipgloss.NewStyle().Foreground(grey),
		Muted:    lipgloss.NewStyle().Foreground(grey),
		Address:  lipgloss.NewStyle().Foreground(green).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(green).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(yellow),
	}
}
