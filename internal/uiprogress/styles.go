package uiprogress

import "github.com/charmbracelet/lipgloss"

// Color palette, matching the accent used by the indexer's CLI output.
const (
	ColorLime     = "154"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the styled components used to render progress and
// completion lines.
type Styles struct {
	Stage   lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// ColorStyles returns the lime-accented styles used on a color terminal.
func ColorStyles() Styles {
	return Styles{
		Stage:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// PlainStyles returns unstyled components for non-color output.
func PlainStyles() Styles {
	return Styles{
		Stage:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
	}
}

// GetStyles picks ColorStyles or PlainStyles based on noColor.
func GetStyles(noColor bool) Styles {
	if noColor {
		return PlainStyles()
	}
	return ColorStyles()
}
