// Package tui is a terminal browser for the study guide: a debounced search
// box with match navigation and a block reader.
package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles of the browser.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Match    lipgloss.Style
	// Active marks the highlight the navigation cursor is on.
	Active  lipgloss.Style
	Block   lipgloss.Style
	Flash   lipgloss.Style
	Counter lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Selected: lipgloss.NewStyle().Bold(true),
		Match:    lipgloss.NewStyle().Background(lipgloss.Color("#F9E2AF")).Foreground(lipgloss.Color("#1E1E2E")),
		Active:   lipgloss.NewStyle().Background(lipgloss.Color("#FAB387")).Foreground(lipgloss.Color("#1E1E2E")).Bold(true),
		Block: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
		Flash: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#A6E3A1")).
			Padding(0, 1),
		Counter: lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}
