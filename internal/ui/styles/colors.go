// Package styles provides centralized Lipgloss styling for pageview output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/pageview/internal/models"
)

// Color palette
var (
	// Panel status colors
	ColorWarningBg  = lipgloss.Color("11") // Yellow background
	ColorCriticalBg = lipgloss.Color("9")  // Red background
	ColorWarningFg  = lipgloss.Color("0")  // Black text on warning
	ColorCriticalFg = lipgloss.Color("15") // White text on critical

	// UI element colors
	ColorBorder  = lipgloss.Color("240") // Gray - all borders
	ColorAccent  = lipgloss.Color("6")   // Cyan - titles, highlights
	ColorMuted   = lipgloss.Color("8")   // Dark gray - secondary text
	ColorSuccess = lipgloss.Color("10")  // Green - success messages
	ColorError   = lipgloss.Color("9")   // Red - error messages

	// Utilization colors
	ColorUtilLow  = lipgloss.Color("214") // Orange - mostly empty pages
	ColorUtilMid  = lipgloss.Color("11")  // Yellow
	ColorUtilHigh = lipgloss.Color("10")  // Green - well packed
)

// PageTypeColor returns the color used to draw pages of type t.
func PageTypeColor(t models.PageType) lipgloss.Color {
	return lipgloss.Color(t.Color())
}

// UtilizationColor returns a color for a utilization percentage.
func UtilizationColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 75:
		return ColorUtilHigh
	case percent >= 40:
		return ColorUtilMid
	default:
		return ColorUtilLow
	}
}
