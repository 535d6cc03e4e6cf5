package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/willibrandon/pageview/internal/ui/styles"
)

// BarChartItem represents a single bar in the chart.
type BarChartItem struct {
	Label string
	Value float64
	// Color is applied to the bar characters. Empty leaves them unstyled.
	Color lipgloss.Color
}

// BarChartConfig configures a bar chart.
type BarChartConfig struct {
	Title         string
	Width         int
	MaxLabelWidth int
	ShowValues    bool
}

// DefaultBarChartConfig returns sensible defaults.
func DefaultBarChartConfig() BarChartConfig {
	return BarChartConfig{
		Width:         80,
		MaxLabelWidth: 24,
		ShowValues:    true,
	}
}

// RenderBarChart renders horizontal bars with pterm and recolors them per item.
func RenderBarChart(items []BarChartItem, config BarChartConfig) string {
	if config.Width < 40 {
		config.Width = 40
	}
	if config.MaxLabelWidth < 10 {
		config.MaxLabelWidth = 10
	}

	if len(items) == 0 {
		return withTitle(config.Title, styles.MutedStyle.Render("No data available"))
	}

	// pterm's own colors are replaced by lipgloss styles below
	pterm.DisableColor()
	defer pterm.EnableColor()

	bars := make(pterm.Bars, 0, len(items))
	labelColors := make(map[string]lipgloss.Color, len(items))
	for _, item := range items {
		label := truncateLabel(item.Label, config.MaxLabelWidth)
		bars = append(bars, pterm.Bar{
			Label: label,
			Value: int(item.Value),
		})
		labelColors[label] = item.Color
	}

	barAreaWidth := config.Width - config.MaxLabelWidth - 15
	if barAreaWidth < 10 {
		barAreaWidth = 10
	}

	chart, err := pterm.DefaultBarChart.
		WithBars(bars).
		WithHorizontal(true).
		WithShowValue(config.ShowValues).
		WithWidth(barAreaWidth).
		Srender()
	if err != nil {
		return withTitle(config.Title, styles.ErrorStyle.Render(fmt.Sprintf("chart error: %v", err)))
	}

	lines := strings.Split(chart, "\n")
	for i, line := range lines {
		for label, color := range labelColors {
			if color != "" && strings.Contains(line, label) {
				lines[i] = colorBarInLine(line, lipgloss.NewStyle().Foreground(color))
				break
			}
		}
	}

	return withTitle(config.Title, strings.Join(lines, "\n"))
}

func withTitle(title, body string) string {
	if title == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, styles.TitleStyle.Render(title), "", body)
}

// colorBarInLine applies style to each run of bar characters in line.
func colorBarInLine(line string, style lipgloss.Style) string {
	var result strings.Builder
	var bar strings.Builder

	for _, ch := range line {
		if isBarChar(ch) {
			bar.WriteRune(ch)
			continue
		}
		if bar.Len() > 0 {
			result.WriteString(style.Render(bar.String()))
			bar.Reset()
		}
		result.WriteRune(ch)
	}
	if bar.Len() > 0 {
		result.WriteString(style.Render(bar.String()))
	}
	return result.String()
}

func isBarChar(ch rune) bool {
	switch ch {
	case '█', '▓', '▒', '░', '▄', '▀', '■':
		return true
	}
	return false
}

// truncateLabel truncates s to maxLen display cells with an ellipsis.
func truncateLabel(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}
