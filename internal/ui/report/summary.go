// Package report renders parsed snapshots, page details and watch events
// for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/ui/components"
	"github.com/willibrandon/pageview/internal/ui/styles"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// SummaryOptions selects the optional sections of a summary.
type SummaryOptions struct {
	Width     int
	ShowChart bool
	ShowGrid  bool
}

// DefaultSummaryOptions returns every section at the default width.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		Width:     DefaultWidth,
		ShowChart: true,
		ShowGrid:  true,
	}
}

type field struct {
	label string
	value string
}

// RenderSummary renders the header fields, page type breakdown and
// utilization of a snapshot.
func RenderSummary(path string, info *models.DatabaseInfo, opts SummaryOptions) string {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if info == nil {
		return styles.MutedStyle.Render("No database loaded")
	}

	h := info.Header()
	title := styles.TitleStyle.Render(Truncate(path, opts.Width-2))

	headerFields := []field{
		{"Page size", humanize.IBytes(uint64(info.PageSize()))},
		{"Pages", humanize.Comma(int64(info.PageCount()))},
		{"Header pages", humanize.Comma(int64(h.DatabaseSize))},
		{"File size", humanize.IBytes(info.TotalFileSize())},
		{"Change counter", fmt.Sprintf("%d", h.FileChangeCounter)},
		{"Schema format", fmt.Sprintf("%d", h.SchemaFormat)},
		{"Text encoding", h.TextEncodingName()},
		{"SQLite version", h.SQLiteVersionString()},
	}
	spaceFields := []field{
		{"Free space", humanize.IBytes(info.TotalFreeSpace())},
		{"Avg utilization", fmt.Sprintf("%.1f%%", info.AverageUtilization())},
		{"Freelist pages", humanize.Comma(int64(h.FreelistCount))},
		{"First trunk", pageRef(h.FirstFreelistTrunk)},
		{"Reserved bytes", fmt.Sprintf("%d", h.ReservedSpace)},
		{"Skipped pages", skippedText(info.SkippedPages())},
	}

	panelWidth := (opts.Width - 6) / 2
	if panelWidth < 30 {
		panelWidth = 30
	}
	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel("Header", headerFields, panelWidth, nil),
		" ",
		renderPanel("Space", spaceFields, panelWidth, nil),
	)

	sections := []string{title, panels}

	if tree := components.RenderTypeTree(info); tree != "" {
		sections = append(sections, tree)
	}

	if opts.ShowChart && info.PageCount() > 0 {
		chartCfg := components.DefaultBarChartConfig()
		chartCfg.Title = "Page Types"
		chartCfg.Width = opts.Width
		sections = append(sections, components.RenderBarChart(components.PageTypeBars(info), chartCfg))

		util := info.Utilizations()
		if len(util) > 1 {
			sections = append(sections, styles.TitleStyle.Render("Utilization"), components.RenderUtilizationChart(util, components.UtilizationChartConfig{
				Width:   opts.Width - 10,
				Height:  6,
				Caption: "per-page utilization %",
			}))
		}
	}

	if opts.ShowGrid && info.PageCount() > 0 {
		gridCfg := components.DefaultPageGridConfig()
		if opts.Width-4 < gridCfg.Width {
			gridCfg.Width = opts.Width - 4
		}
		sections = append(sections, styles.TitleStyle.Render("Page Map"), components.RenderPageGrid(info, gridCfg))
	}

	return strings.Join(sections, "\n\n")
}

// RenderCompact renders a one-line summary, used for watch updates.
func RenderCompact(info *models.DatabaseInfo) string {
	if info == nil {
		return ""
	}
	line := fmt.Sprintf("%s pages × %s, %s free, %.1f%% utilized",
		humanize.Comma(int64(info.PageCount())),
		humanize.IBytes(uint64(info.PageSize())),
		humanize.IBytes(info.TotalFreeSpace()),
		info.AverageUtilization(),
	)
	if n := info.SkippedCount(); n > 0 {
		line += fmt.Sprintf(", %d skipped", n)
	}
	return line
}

// renderPanel draws labeled values in a bordered panel. colors optionally
// maps a label to the color of its value.
func renderPanel(title string, fields []field, width int, colors map[string]lipgloss.Color) string {
	labelWidth := 0
	for _, f := range fields {
		if w := runewidth.StringWidth(f.label); w > labelWidth {
			labelWidth = w
		}
	}

	valueWidth := width - labelWidth - 6
	if valueWidth < 8 {
		valueWidth = 8
	}

	lines := []string{styles.TitleStyle.Render(title)}
	for _, f := range fields {
		label := styles.LabelStyle.Render(runewidth.FillRight(f.label, labelWidth))
		valueStyle := styles.ValueStyle
		if c, ok := colors[f.label]; ok {
			valueStyle = valueStyle.Foreground(c)
		}
		lines = append(lines, label+"  "+valueStyle.Render(Truncate(f.value, valueWidth)))
	}
	return styles.PanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func pageRef(n uint32) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", n)
}

func skippedText(pages []uint32) string {
	switch len(pages) {
	case 0:
		return "none"
	case 1, 2, 3:
		parts := make([]string, len(pages))
		for i, n := range pages {
			parts[i] = fmt.Sprintf("#%d", n)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("#%d, #%d … (%d)", pages[0], pages[1], len(pages))
	}
}

// Truncate shortens s to maxWidth display cells, ending in an ellipsis.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "…")
}
