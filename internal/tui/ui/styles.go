package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the styles used in the TUI
type Styles struct {
	// Base styles
	App lipgloss.Style

	// Header
	Header    lipgloss.Style
	ViewTitle lipgloss.Style
	Owner     lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	StatusHelp  lipgloss.Style

	// Entry table
	TableHeader   lipgloss.Style
	EntrySelected lipgloss.Style
	EntryNormal   lipgloss.Style
	EntryName     lipgloss.Style
	EntryEmail    lipgloss.Style
	EntryUser     lipgloss.Style
	EntryCategory lipgloss.Style
	SortIndicator lipgloss.Style

	// Labels
	Label lipgloss.Style
	Value lipgloss.Style
	Muted lipgloss.Style

	// Help
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Dialog
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style

	// Errors and warnings
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles returns the default TUI styles
func DefaultStyles() Styles {
	// Color palette
	primary := lipgloss.Color("99")     // Purple
	secondary := lipgloss.Color("39")   // Cyan
	accent := lipgloss.Color("212")     // Pink
	muted := lipgloss.Color("240")      // Gray
	text := lipgloss.Color("252")       // Light gray
	success := lipgloss.Color("82")     // Green
	warning := lipgloss.Color("214")    // Orange
	errorColor := lipgloss.Color("196") // Red

	return Styles{
		App: lipgloss.NewStyle().Padding(1, 2),

		Header: lipgloss.NewStyle().
			MarginBottom(1).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(muted),
		ViewTitle: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1),
		Owner: lipgloss.NewStyle().
			Foreground(secondary),

		StatusBar: lipgloss.NewStyle().
			Foreground(text).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),
		StatusValue: lipgloss.NewStyle().
			Foreground(text),
		StatusHelp: lipgloss.NewStyle().
			Foreground(muted),

		TableHeader: lipgloss.NewStyle().
			Foreground(muted).
			Bold(true),
		EntrySelected: lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Bold(true),
		EntryNormal: lipgloss.NewStyle(),
		EntryName: lipgloss.NewStyle().
			Foreground(text),
		EntryEmail: lipgloss.NewStyle().
			Foreground(secondary),
		EntryUser: lipgloss.NewStyle().
			Foreground(accent),
		EntryCategory: lipgloss.NewStyle().
			Foreground(primary),
		SortIndicator: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(muted).
			Width(12),
		Value: lipgloss.NewStyle().
			Foreground(text).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),

		HelpKey: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(muted),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2).
			Width(50),
		DialogTitle: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),
		Warning: lipgloss.NewStyle().
			Foreground(warning),
		Success: lipgloss.NewStyle().
			Foreground(success),
	}
}
