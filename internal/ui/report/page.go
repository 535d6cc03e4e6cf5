package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/ui/styles"
)

// ErrPageNotFound is returned for page numbers absent from a snapshot.
var ErrPageNotFound = errors.New("page not found")

// RenderPage renders the details of page n.
func RenderPage(info *models.DatabaseInfo, n uint32) (string, error) {
	if info == nil {
		return "", ErrPageNotFound
	}
	p, ok := info.GetPage(n)
	if !ok {
		for _, s := range info.SkippedPages() {
			if s == n {
				return "", fmt.Errorf("%w: page %d could not be parsed", ErrPageNotFound, n)
			}
		}
		return "", fmt.Errorf("%w: page %d (database has %d pages)", ErrPageNotFound, n, info.PageCount())
	}

	pageSize := info.PageSize()
	util := p.UtilizationPercent(pageSize)
	fields := []field{
		{"Type", p.Type.String()},
		{"Cells", fmt.Sprintf("%d", p.CellCount)},
		{"Free space", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(p.FreeSpace)), p.FreeSpace)},
		{"Fragmented", fmt.Sprintf("%d bytes", p.FragmentedBytes)},
		{"Rightmost", rightmostText(p)},
		{"Utilization", fmt.Sprintf("%.1f%%", util)},
		{"Offset", fmt.Sprintf("%d", pageOffset(n, pageSize))},
	}
	colors := map[string]lipgloss.Color{
		"Type":        styles.PageTypeColor(p.Type),
		"Utilization": styles.UtilizationColor(util),
	}
	return renderPanel(fmt.Sprintf("Page %d", n), fields, 44, colors), nil
}

// RenderPageTable renders one row per page.
func RenderPageTable(pages []models.PageInfo, pageSize int) string {
	if len(pages) == 0 {
		return styles.MutedStyle.Render("No pages")
	}

	cols := []struct {
		title string
		width int
	}{
		{"PAGE", 8}, {"TYPE", 5}, {"CELLS", 6}, {"FREE", 7}, {"FRAG", 5}, {"RIGHT", 8}, {"UTIL", 7},
	}

	var sb strings.Builder
	var header []string
	for _, c := range cols {
		header = append(header, runewidth.FillLeft(c.title, c.width))
	}
	sb.WriteString(styles.TableHeaderStyle.Render(strings.Join(header, " ")))
	sb.WriteString("\n")

	for _, p := range pages {
		right := "-"
		if p.RightmostPointer != nil {
			right = fmt.Sprintf("%d", *p.RightmostPointer)
		}
		values := []string{
			fmt.Sprintf("%d", p.Number),
			p.Type.ShortName(),
			fmt.Sprintf("%d", p.CellCount),
			fmt.Sprintf("%d", p.FreeSpace),
			fmt.Sprintf("%d", p.FragmentedBytes),
			right,
			fmt.Sprintf("%.1f%%", p.UtilizationPercent(pageSize)),
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = runewidth.FillLeft(v, cols[i].width)
		}
		cells[1] = lipgloss.NewStyle().Foreground(styles.PageTypeColor(p.Type)).Render(cells[1])
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func rightmostText(p models.PageInfo) string {
	if p.RightmostPointer == nil {
		return "-"
	}
	return fmt.Sprintf("#%d", *p.RightmostPointer)
}

func pageOffset(n uint32, pageSize int) int64 {
	return int64(n-1) * int64(pageSize)
}
