package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/willibrandon/pageview/internal/storage/sqlite"
	"github.com/willibrandon/pageview/internal/ui/components"
	"github.com/willibrandon/pageview/internal/ui/styles"
)

const historyTrendWidth = 24

// RenderHistory renders stored parses, newest first, with a trend line of
// average utilization.
func RenderHistory(records []sqlite.ParseRecord, now time.Time) string {
	if len(records) == 0 {
		return styles.MutedStyle.Render("No parse history")
	}

	cols := []struct {
		title string
		width int
	}{
		{"WHEN", 16}, {"PAGES", 9}, {"SIZE", 10}, {"FREE", 10}, {"UTIL", 7}, {"SKIP", 5}, {"TOOK", 9},
	}

	var sb strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = runewidth.FillRight(c.title, c.width)
	}
	sb.WriteString(styles.TableHeaderStyle.Render(strings.Join(header, " ")))
	sb.WriteString("\n")

	for _, r := range records {
		values := []string{
			humanize.RelTime(r.ParsedAt, now, "ago", "from now"),
			humanize.Comma(int64(r.PageCount)),
			humanize.IBytes(uint64(r.FileSize)),
			humanize.IBytes(uint64(r.FreeBytes)),
			fmt.Sprintf("%.1f%%", r.AvgUtilization),
			fmt.Sprintf("%d", r.SkippedPages),
			fmt.Sprintf("%.1fms", r.DurationMs),
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = runewidth.FillRight(Truncate(v, cols[i].width), cols[i].width)
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}

	if len(records) > 1 {
		// oldest to newest, left to right
		util := make([]float64, len(records))
		for i, r := range records {
			util[len(records)-1-i] = r.AvgUtilization
		}
		fmt.Fprintf(&sb, "\n%s %s",
			styles.LabelStyle.Render("utilization"),
			components.RenderUtilizationTrend(util, historyTrendWidth),
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}
