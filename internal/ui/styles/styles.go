package styles

import "github.com/charmbracelet/lipgloss"

// Common border styles
var (
	// BorderNormal is the standard border for most UI elements
	BorderNormal = lipgloss.NormalBorder()

	// BorderRounded is used for summary panels
	BorderRounded = lipgloss.RoundedBorder()
)

// Panel styles
var (
	// PanelStyle is the base style for summary panels
	PanelStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// TitleStyle is for section titles
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// LabelStyle is for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Bold(true)
)

// Table styles
var (
	// TableHeaderStyle is for table column headers
	TableHeaderStyle = lipgloss.NewStyle().
				BorderStyle(BorderNormal).
				BorderForeground(ColorBorder).
				BorderBottom(true).
				Bold(false)
)

// Message styles
var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// WarningBadgeStyle highlights a warning count
	WarningBadgeStyle = lipgloss.NewStyle().
				Background(ColorWarningBg).
				Foreground(ColorWarningFg).
				Padding(0, 1)

	// CriticalBadgeStyle highlights a failure count
	CriticalBadgeStyle = lipgloss.NewStyle().
				Background(ColorCriticalBg).
				Foreground(ColorCriticalFg).
				Padding(0, 1)
)
