package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: a single lime accent over grays.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Selection background
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Borders, separators
	ColorBlue     = "39"  // File paths
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Matched term
)

// Styles holds all styles used by the search view.
type Styles struct {
	Header   lipgloss.Style
	Prompt   lipgloss.Style
	Repo     lipgloss.Style
	File     lipgloss.Style
	LineNo   lipgloss.Style
	Match    lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Error    lipgloss.Style
	Border   lipgloss.Style
	Label    lipgloss.Style
}

// DefaultStyles returns colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Repo:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		File:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue)),
		LineNo:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Match:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorYellow)),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)).Background(lipgloss.Color(ColorLimeDim)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Border:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// NoColorStyles returns unstyled components. The selected row is still
// marked, by reverse video, so navigation stays visible.
func NoColorStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle(),
		Prompt:   lipgloss.NewStyle(),
		Repo:     lipgloss.NewStyle(),
		File:     lipgloss.NewStyle(),
		LineNo:   lipgloss.NewStyle(),
		Match:    lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Reverse(true),
		Dim:      lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Border:   lipgloss.NewStyle(),
		Label:    lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
