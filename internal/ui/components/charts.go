// Package components provides reusable rendering components for pageview reports.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/willibrandon/pageview/internal/ui/styles"
)

var blocks = []rune("▁▂▃▄▅▆▇█")

// trendThreshold is the change, in percentage points, below which
// utilization is reported as steady.
const trendThreshold = 1.0

// UtilizationChartConfig controls RenderUtilizationChart.
type UtilizationChartConfig struct {
	Width   int
	Height  int
	Caption string
}

// RenderUtilizationChart plots per-page utilization in page order on a fixed
// 0-100% axis. When there are more pages than columns each column shows the
// mean of its pages. The plot takes the color of the overall mean.
func RenderUtilizationChart(util []float64, cfg UtilizationChartConfig) string {
	if len(util) == 0 {
		return ""
	}
	if cfg.Height < 1 {
		cfg.Height = 6
	}

	opts := []asciigraph.Option{
		asciigraph.Height(cfg.Height),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Precision(0),
	}
	if cfg.Width > 0 {
		opts = append(opts, asciigraph.Width(cfg.Width))
	}
	if cfg.Caption != "" {
		opts = append(opts, asciigraph.Caption(cfg.Caption))
	}

	graph := asciigraph.Plot(buckets(util, cfg.Width, mean), opts...)

	style := lipgloss.NewStyle().Foreground(styles.UtilizationColor(mean(util)))
	lines := strings.Split(graph, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

// sparkCell is one column of a single-line chart.
type sparkCell struct {
	block rune
	value float64
	slow  bool
}

// RenderUtilizationTrend draws utilization percentages, oldest first, on a
// fixed 0-100% scale with each cell in its utilization band color. The
// direction and size of the change follow the chart.
func RenderUtilizationTrend(util []float64, width int) string {
	if len(util) == 0 {
		return strings.Repeat("─", width)
	}

	var sb strings.Builder
	for _, c := range utilizationCells(util, width) {
		sb.WriteString(lipgloss.NewStyle().Foreground(styles.UtilizationColor(c.value)).Render(string(c.block)))
	}

	delta := UtilizationChange(util)
	fmt.Fprintf(&sb, " %s %+.1f pts", TrendArrow(delta), delta)
	return sb.String()
}

func utilizationCells(util []float64, width int) []sparkCell {
	data := buckets(util, width, mean)
	cells := make([]sparkCell, len(data))
	for i, v := range data {
		cells[i] = sparkCell{block: blockFor(v, 100), value: v}
	}
	return cells
}

// UtilizationChange returns the mean of the newer half of util minus the mean
// of the older half, in percentage points. A middle value in an odd-length
// series is left out.
func UtilizationChange(util []float64) float64 {
	if len(util) < 2 {
		return 0
	}
	half := len(util) / 2
	return mean(util[len(util)-half:]) - mean(util[:half])
}

// TrendArrow returns the direction of a utilization change.
func TrendArrow(delta float64) string {
	switch {
	case delta >= trendThreshold:
		return "↑"
	case delta <= -trendThreshold:
		return "↓"
	default:
		return "→"
	}
}

// RenderDurationSparkline draws parse durations in milliseconds on one line,
// scaled to the slowest parse. Columns whose slowest parse exceeds slowMs are
// drawn in the error color; slowMs <= 0 disables the marking.
func RenderDurationSparkline(durations []float64, width int, slowMs float64) string {
	if len(durations) == 0 {
		return strings.Repeat("─", width)
	}

	normal := lipgloss.NewStyle().Foreground(styles.ColorAccent)
	slow := lipgloss.NewStyle().Foreground(styles.ColorError)

	var sb strings.Builder
	for _, c := range durationCells(durations, width, slowMs) {
		if c.slow {
			sb.WriteString(slow.Render(string(c.block)))
		} else {
			sb.WriteString(normal.Render(string(c.block)))
		}
	}
	return sb.String()
}

func durationCells(durations []float64, width int, slowMs float64) []sparkCell {
	// Peaks keep a single slow parse visible after bucketing.
	data := buckets(durations, width, peak)
	top := peak(data)
	cells := make([]sparkCell, len(data))
	for i, v := range data {
		cells[i] = sparkCell{
			block: blockFor(v, top),
			value: v,
			slow:  slowMs > 0 && v > slowMs,
		}
	}
	return cells
}

// blockFor maps v in [0, top] to one of eight block heights.
func blockFor(v, top float64) rune {
	if top <= 0 || v <= 0 {
		return blocks[0]
	}
	idx := int(v / top * float64(len(blocks)-1))
	if idx >= len(blocks) {
		idx = len(blocks) - 1
	}
	return blocks[idx]
}

// buckets folds data into at most width columns, reducing each run of values
// with reduce. Data that already fits is returned as is.
func buckets(data []float64, width int, reduce func([]float64) float64) []float64 {
	if width <= 0 || len(data) <= width {
		return data
	}
	out := make([]float64, width)
	for i := range out {
		lo := i * len(data) / width
		hi := (i + 1) * len(data) / width
		out[i] = reduce(data[lo:hi])
	}
	return out
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func peak(data []float64) float64 {
	top := 0.0
	for _, v := range data {
		if v > top {
			top = v
		}
	}
	return top
}
