// Package themes holds the color schemes of the terminal UI.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Tab           lipgloss.Style
	ActiveTab     lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusPending lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

func build(primary, foreground, subtle, border, success, errColor, info string) Theme {
	tab := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true, true, false, true).
		BorderForeground(lipgloss.Color(border)).
		Foreground(lipgloss.Color(subtle)).
		Padding(0, 2)

	return Theme{
		Primary: lipgloss.Color(primary),
		Muted:   lipgloss.Color(subtle),
		Border:  lipgloss.Color(border),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(primary)).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(foreground)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(foreground)),

		Tab: tab,
		ActiveTab: tab.
			BorderForeground(lipgloss.Color(primary)).
			Foreground(lipgloss.Color(primary)).
			Bold(true),

		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(success)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(errColor)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(subtle)).
			Italic(true),
	}
}

// Default is the default theme.
var Default = build("#3b82f6", "#fafafa", "#a3a3a3", "#404040", "#10b981", "#ef4444", "#60a5fa")

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build("#89b4fa", "#cdd6f4", "#a6adc8", "#45475a", "#a6e3a1", "#f38ba8", "#89dceb")

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
