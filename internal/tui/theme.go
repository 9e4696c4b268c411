package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors and symbols for the dashboard using lipgloss
type Theme struct {
	TabOn    lipgloss.Style
	TabOff   lipgloss.Style
	Totals   lipgloss.Style
	Header   lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Green    lipgloss.Style
	Yellow   lipgloss.Style
	Red      lipgloss.Style
	Status   lipgloss.Style

	Mark string
}

func DefaultTheme() *Theme {
	t := &Theme{
		TabOn:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")).Padding(0, 1),
		TabOff:   lipgloss.NewStyle().Padding(0, 1),
		Totals:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1),
		Header:   lipgloss.NewStyle().Bold(true),
		Cursor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("1")),
		Dim:      lipgloss.NewStyle().Faint(true),
		Green:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Yellow:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Red:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7")),

		Mark: "✓",
	}

	return t
}
