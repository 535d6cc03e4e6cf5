package components

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/willibrandon/pageview/internal/models"
)

func testInfo(pages int, skipped ...uint32) *models.DatabaseInfo {
	var h models.DatabaseHeader
	copy(h.Magic[:], models.MagicString)
	h.PageSize = 1024

	m := make(map[uint32]models.PageInfo, pages)
	for n := uint32(1); n <= uint32(pages); n++ {
		t := models.PageTypeTableLeaf
		if n == 1 {
			t = models.PageTypeTableInterior
		}
		m[n] = models.PageInfo{Number: n, Type: t, FreeSpace: 512}
	}
	for _, n := range skipped {
		delete(m, n)
	}
	return models.NewDatabaseInfo(h, m, uint64(pages)*1024, skipped)
}

func TestRenderUtilizationChart_FixedScale(t *testing.T) {
	// A narrow range must still be drawn against the full 0-100 axis.
	got := RenderUtilizationChart([]float64{40, 42, 41, 43}, UtilizationChartConfig{Width: 20, Height: 4, Caption: "utilization"})
	if !strings.Contains(got, "utilization") {
		t.Errorf("chart missing caption:\n%s", got)
	}
	if !strings.Contains(got, "100") || !strings.Contains(got, " 0 ") {
		t.Errorf("chart axis should span 0 to 100:\n%s", got)
	}
	if RenderUtilizationChart(nil, UtilizationChartConfig{Height: 4}) != "" {
		t.Error("empty data should render nothing")
	}
}

func TestUtilizationCells_FixedScale(t *testing.T) {
	cells := utilizationCells([]float64{0, 50, 100, 150}, 10)
	want := []rune{'▁', '▄', '█', '█'}
	if len(cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(cells), len(want))
	}
	for i, c := range cells {
		if c.block != want[i] {
			t.Errorf("cell %d = %q, want %q", i, c.block, want[i])
		}
	}

	// Averaged into columns.
	cells = utilizationCells([]float64{20, 40, 60, 80}, 2)
	if len(cells) != 2 || cells[0].value != 30 || cells[1].value != 70 {
		t.Errorf("utilizationCells() = %+v, want values [30 70]", cells)
	}
}

func TestRenderUtilizationTrend(t *testing.T) {
	got := RenderUtilizationTrend([]float64{60, 62, 70, 75}, 10)
	if !strings.HasSuffix(got, "↑ +11.5 pts") {
		t.Errorf("RenderUtilizationTrend() = %q", got)
	}
	if got := RenderUtilizationTrend(nil, 5); got != "─────" {
		t.Errorf("RenderUtilizationTrend(nil) = %q", got)
	}
}

func TestUtilizationChange(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		want  float64
		arrow string
	}{
		{"single", []float64{5}, 0, "→"},
		{"rising", []float64{10, 10, 10, 50, 50, 50}, 40, "↑"},
		{"falling", []float64{50, 50, 50, 10, 10, 10}, -40, "↓"},
		{"steady", []float64{80, 80.5, 80, 80.5}, 0, "→"},
		{"odd length skips middle", []float64{10, 99, 30}, 20, "↑"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UtilizationChange(tt.data)
			if got != tt.want {
				t.Errorf("UtilizationChange() = %v, want %v", got, tt.want)
			}
			if a := TrendArrow(got); a != tt.arrow {
				t.Errorf("TrendArrow(%v) = %q, want %q", got, a, tt.arrow)
			}
		})
	}
}

func TestDurationCells_MarksSlowParses(t *testing.T) {
	cells := durationCells([]float64{10, 20, 80, 40}, 10, 50)
	if len(cells) != 4 {
		t.Fatalf("got %d cells, want 4", len(cells))
	}
	for i, c := range cells {
		if want := i == 2; c.slow != want {
			t.Errorf("cell %d slow = %v, want %v", i, c.slow, want)
		}
	}
	if cells[2].block != '█' {
		t.Errorf("slowest parse drawn as %q, want full block", cells[2].block)
	}

	// A single spike survives bucketing.
	data := make([]float64, 100)
	for i := range data {
		data[i] = 5
	}
	data[37] = 500
	cells = durationCells(data, 10, 100)
	slow := 0
	for _, c := range cells {
		if c.slow {
			slow++
		}
	}
	if slow != 1 {
		t.Errorf("%d slow columns, want 1", slow)
	}

	for _, c := range durationCells([]float64{10, 80}, 10, 0) {
		if c.slow {
			t.Error("no parse is slow without a threshold")
		}
	}
}

func TestRenderDurationSparkline(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i)
	}
	got := RenderDurationSparkline(data, 10, 0)
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("rune count = %d, want 10", n)
	}
	if got := RenderDurationSparkline(nil, 5, 0); got != "─────" {
		t.Errorf("RenderDurationSparkline(nil) = %q", got)
	}
}

func TestBuckets(t *testing.T) {
	short := []float64{1, 2}
	if got := buckets(short, 10, mean); len(got) != 2 {
		t.Errorf("short input folded to %d values", len(got))
	}
	got := buckets([]float64{1, 3, 5, 7, 9}, 2, peak)
	if len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Errorf("buckets(peak) = %v, want [3 9]", got)
	}
}

func TestRenderBarChart_EmptyData(t *testing.T) {
	got := RenderBarChart(nil, DefaultBarChartConfig())
	if !strings.Contains(got, "No data available") {
		t.Errorf("empty chart = %q", got)
	}
}

func TestRenderBarChart_Labels(t *testing.T) {
	config := DefaultBarChartConfig()
	config.Title = "Page Types"
	got := RenderBarChart(PageTypeBars(testInfo(5)), config)

	for _, want := range []string{"Page Types", "Table B-Tree Leaf", "Table B-Tree Interior"} {
		if !strings.Contains(got, want) {
			t.Errorf("chart missing %q:\n%s", want, got)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long label", 10, "this is..."},
		{"ab", 3, "ab"},
		{"abcd", 3, "abc"},
	}
	for _, tc := range tests {
		if got := truncateLabel(tc.input, tc.maxLen); got != tc.expected {
			t.Errorf("truncateLabel(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.expected)
		}
	}
}

func TestPageTypeBars_LargestFirst(t *testing.T) {
	items := PageTypeBars(testInfo(4))
	if len(items) != 2 {
		t.Fatalf("got %d bars, want 2", len(items))
	}
	if items[0].Label != "Table B-Tree Leaf" || items[0].Value != 3 {
		t.Errorf("first bar = %+v", items[0])
	}
	if items[1].Label != "Table B-Tree Interior" || items[1].Value != 1 {
		t.Errorf("second bar = %+v", items[1])
	}
	if PageTypeBars(nil) != nil {
		t.Error("nil snapshot should produce no bars")
	}
}

func TestRenderTypeTree(t *testing.T) {
	if RenderTypeTree(nil) != "" {
		t.Error("nil snapshot should render empty tree")
	}

	got := RenderTypeTree(testInfo(4))
	for _, want := range []string{"4 pages", "B-tree (4)", "Table B-Tree Leaf: 3 (75.0%)", "Table B-Tree Interior: 1 (25.0%)"} {
		if !strings.Contains(got, want) {
			t.Errorf("tree missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Freelist") {
		t.Errorf("empty groups should be omitted:\n%s", got)
	}
}

func TestRenderPageGrid(t *testing.T) {
	got := RenderPageGrid(testInfo(4, 4), PageGridConfig{Width: 8, ShowLegend: true})
	lines := strings.Split(got, "\n")
	if lines[0] != "▓██×" {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.Contains(got, "skipped") || !strings.Contains(got, "TBL") {
		t.Errorf("legend missing entries:\n%s", got)
	}
}

func TestRenderPageGrid_MaxRows(t *testing.T) {
	got := RenderPageGrid(testInfo(40), PageGridConfig{Width: 8, MaxRows: 2})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 2 rows plus marker:\n%s", len(lines), got)
	}
	if lines[2] != "…" {
		t.Errorf("truncation marker = %q", lines[2])
	}
}

func TestRenderPageGrid_Empty(t *testing.T) {
	got := RenderPageGrid(testInfo(0), DefaultPageGridConfig())
	if got != "(no pages)" {
		t.Errorf("empty grid = %q", got)
	}
}
