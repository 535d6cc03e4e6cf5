package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/ui/styles"
)

// PageGridConfig configures a page map.
type PageGridConfig struct {
	// Width is the number of cells per row.
	Width int
	// MaxRows limits the rendered rows. Zero renders every page.
	MaxRows int
	// ShowLegend appends one line per page type present.
	ShowLegend bool
}

// DefaultPageGridConfig returns sensible defaults.
func DefaultPageGridConfig() PageGridConfig {
	return PageGridConfig{
		Width:      64,
		MaxRows:    16,
		ShowLegend: true,
	}
}

// RenderPageGrid draws one cell per page in page order, colored by type.
// Skipped pages are drawn as '×'.
func RenderPageGrid(info *models.DatabaseInfo, config PageGridConfig) string {
	if info == nil {
		return ""
	}
	if config.Width < 8 {
		config.Width = 8
	}

	last := uint32(0)
	if pages := info.Pages(); len(pages) > 0 {
		last = pages[len(pages)-1].Number
	}
	skippedPages := info.SkippedPages()
	if n := len(skippedPages); n > 0 && skippedPages[n-1] > last {
		last = skippedPages[n-1]
	}
	if last == 0 {
		return styles.MutedStyle.Render("(no pages)")
	}

	skipped := make(map[uint32]bool, len(skippedPages))
	for _, n := range skippedPages {
		skipped[n] = true
	}

	skipStyle := lipgloss.NewStyle().Foreground(styles.ColorError)
	var rows []string
	var row strings.Builder
	cells := 0
	truncated := false

	for n := uint32(1); n <= last; n++ {
		switch p, ok := info.GetPage(n); {
		case ok:
			row.WriteString(lipgloss.NewStyle().Foreground(styles.PageTypeColor(p.Type)).Render(cellRune(p.Type)))
		case skipped[n]:
			row.WriteString(skipStyle.Render("×"))
		default:
			row.WriteString(" ")
		}
		cells++
		if cells == config.Width {
			rows = append(rows, row.String())
			row.Reset()
			cells = 0
			if config.MaxRows > 0 && len(rows) == config.MaxRows && n < last {
				truncated = true
				break
			}
		}
	}
	if cells > 0 {
		rows = append(rows, row.String())
	}
	if truncated {
		rows = append(rows, styles.MutedStyle.Render("…"))
	}

	if config.ShowLegend {
		rows = append(rows, "", renderLegend(info))
	}
	return strings.Join(rows, "\n")
}

// cellRune picks a glyph so the grid stays readable without color.
func cellRune(t models.PageType) string {
	switch t {
	case models.PageTypeTableInterior, models.PageTypeIndexInterior:
		return "▓"
	case models.PageTypeTableLeaf, models.PageTypeIndexLeaf:
		return "█"
	case models.PageTypeFreelistTrunk, models.PageTypeFreelistLeaf:
		return "░"
	case models.PageTypeUnknown:
		return "?"
	default:
		return "▒"
	}
}

func renderLegend(info *models.DatabaseInfo) string {
	counts := info.TypeCounts()
	var parts []string
	for _, group := range treeGroups {
		for _, t := range group.types {
			if counts[t] == 0 {
				continue
			}
			style := lipgloss.NewStyle().Foreground(styles.PageTypeColor(t))
			parts = append(parts, style.Render(cellRune(t))+" "+t.ShortName())
		}
	}
	if info.SkippedCount() > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.ColorError).Render("×")+" skipped")
	}
	return strings.Join(parts, "  ")
}
