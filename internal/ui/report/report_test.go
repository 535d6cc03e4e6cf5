package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/storage/sqlite"
	"github.com/willibrandon/pageview/internal/watcher"
)

func init() {
	color.NoColor = true
}

func sampleInfo() *models.DatabaseInfo {
	var h models.DatabaseHeader
	copy(h.Magic[:], models.MagicString)
	h.PageSize = 4096
	h.DatabaseSize = 4
	h.FileChangeCounter = 12
	h.SchemaFormat = 4
	h.TextEncoding = models.EncodingUTF8
	h.SQLiteVersion = 3045001

	rp := uint32(3)
	pages := map[uint32]models.PageInfo{
		1: {Number: 1, Type: models.PageTypeTableLeaf, CellCount: 2, FreeSpace: 3000},
		2: {Number: 2, Type: models.PageTypeTableInterior, CellCount: 3, FreeSpace: 3982, RightmostPointer: &rp},
		3: {Number: 3, Type: models.PageTypeTableLeaf, CellCount: 40, FreeSpace: 96},
	}
	return models.NewDatabaseInfo(h, pages, 4*4096, []uint32{4})
}

func TestRenderSummary(t *testing.T) {
	got := RenderSummary("/data/app.db", sampleInfo(), DefaultSummaryOptions())

	for _, want := range []string{
		"/data/app.db",
		"4.0 KiB",
		"Change counter",
		"12",
		"UTF-8",
		"3 pages",
		"Page Types",
		"Page Map",
		"#4",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestRenderSummary_SectionsOptional(t *testing.T) {
	got := RenderSummary("app.db", sampleInfo(), SummaryOptions{Width: 100})
	if strings.Contains(got, "Page Map") || strings.Contains(got, "Page Types") {
		t.Errorf("optional sections rendered:\n%s", got)
	}
}

func TestRenderSummary_Nil(t *testing.T) {
	if got := RenderSummary("app.db", nil, DefaultSummaryOptions()); got != "No database loaded" {
		t.Errorf("RenderSummary(nil) = %q", got)
	}
}

func TestRenderCompact(t *testing.T) {
	got := RenderCompact(sampleInfo())
	want := "3 pages × 4.0 KiB, 6.9 KiB free"
	if !strings.HasPrefix(got, want) {
		t.Errorf("RenderCompact() = %q, want prefix %q", got, want)
	}
	if !strings.HasSuffix(got, "1 skipped") {
		t.Errorf("RenderCompact() = %q, want skipped count", got)
	}
	if RenderCompact(nil) != "" {
		t.Error("nil snapshot should render empty")
	}
}

func TestRenderPage(t *testing.T) {
	got, err := RenderPage(sampleInfo(), 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Page 2", "Table B-Tree Interior", "#3", "3982 bytes", "4096"} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q:\n%s", want, got)
		}
	}
}

func TestRenderPage_Missing(t *testing.T) {
	tests := []struct {
		name string
		page uint32
		want string
	}{
		{"skipped", 4, "could not be parsed"},
		{"beyond end", 9, "database has 3 pages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderPage(sampleInfo(), tt.page)
			if !errors.Is(err, ErrPageNotFound) {
				t.Fatalf("error = %v, want ErrPageNotFound", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestRenderPageTable(t *testing.T) {
	info := sampleInfo()
	got := RenderPageTable(info.Pages(), info.PageSize())
	lines := strings.Split(got, "\n")

	// header, border, three rows
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[3], "TBI") || !strings.Contains(lines[3], "2.8%") {
		t.Errorf("page 2 row = %q", lines[3])
	}
	if RenderPageTable(nil, 4096) != "No pages" {
		t.Error("empty table placeholder missing")
	}
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		ev   watcher.Event
		want string
	}{
		{watcher.Event{Seq: 1, Time: at, Kind: watcher.EventFileOpened, Path: "/x/app.db", Info: sampleInfo()}, "03:04:05.000 #1 opened app.db 3 pages"},
		{watcher.Event{Seq: 2, Time: at, Kind: watcher.EventParseProgress, Path: "/x/app.db", Fraction: 0.5}, "progress app.db  50%"},
		{watcher.Event{Seq: 3, Time: at, Kind: watcher.EventParseError, Path: "/x/app.db", Err: errors.New("boom")}, "error app.db boom"},
		{watcher.Event{Seq: 4, Time: at, Kind: watcher.EventWatchingFailed, Path: "/x/app.db", Err: errors.New("too many")}, "FAILED"},
		{watcher.Event{Seq: 5, Time: at, Kind: watcher.EventFileDeleted, Path: "/x/app.db"}, "deleted app.db"},
		{watcher.Event{Seq: 6, Time: at, Kind: watcher.EventWatchingStopped, Path: "/x/app.db"}, "stopped app.db"},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Kind.String(), func(t *testing.T) {
			if got := FormatEvent(tt.ev); !strings.Contains(got, tt.want) {
				t.Errorf("FormatEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewSummaryView_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewSummaryView("app.db", sampleInfo(), true)); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded["page_count"] != float64(3) {
		t.Errorf("page_count = %v", decoded["page_count"])
	}
	types := decoded["page_types"].(map[string]any)
	if types["TBL"] != float64(2) || types["TBI"] != float64(1) {
		t.Errorf("page_types = %v", types)
	}
	if pages := decoded["pages"].([]any); len(pages) != 3 {
		t.Errorf("got %d pages", len(pages))
	}

	buf.Reset()
	if err := WriteJSON(&buf, NewSummaryView("app.db", sampleInfo(), false)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"pages"`) {
		t.Error("pages should be omitted")
	}
}

func TestNewSummaryView_EmptySkippedIsArray(t *testing.T) {
	var h models.DatabaseHeader
	h.PageSize = 1024
	v := NewSummaryView("x.db", models.NewDatabaseInfo(h, nil, 0, nil), false)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, v); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"skipped_pages": []`) {
		t.Errorf("skipped_pages should be an empty array:\n%s", buf.String())
	}
}

func TestNewPageView(t *testing.T) {
	p, _ := sampleInfo().GetPage(3)
	v := NewPageView(p, 4096)
	if v.Offset != 8192 {
		t.Errorf("Offset = %d, want 8192", v.Offset)
	}
	if v.Number != 3 {
		t.Errorf("Number = %d", v.Number)
	}
}

func TestRenderHistory(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []sqlite.ParseRecord{
		{ID: 2, ParsedAt: now.Add(-time.Minute), PageCount: 1200, FileSize: 4915200, FreeBytes: 2048, AvgUtilization: 91.5, DurationMs: 3.2},
		{ID: 1, ParsedAt: now.Add(-time.Hour), PageCount: 1000, FileSize: 4096000, FreeBytes: 4096, AvgUtilization: 80, SkippedPages: 1, DurationMs: 2.9},
	}
	got := RenderHistory(records, now)

	for _, want := range []string{"1 minute ago", "1 hour ago", "1,200", "91.5%", "3.2ms", "utilization"} {
		if !strings.Contains(got, want) {
			t.Errorf("history missing %q:\n%s", want, got)
		}
	}
	if RenderHistory(nil, now) != "No parse history" {
		t.Error("empty history placeholder missing")
	}

	views := NewHistoryViews(records)
	if len(views) != 2 || views[0].PageCount != 1200 {
		t.Errorf("NewHistoryViews() = %+v", views)
	}
}

func TestFormatParseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing", fmt.Errorf("open database file: %w", os.ErrNotExist), "File not found"},
		{"permission", fmt.Errorf("open database file: %w", os.ErrPermission), "Permission denied"},
		{"format", fmt.Errorf("%w: unexpected magic", parser.ErrInvalidFormat), "Not a SQLite database"},
		{"truncated", fmt.Errorf("read database header: %w", io.ErrUnexpectedEOF), "File too short"},
		{"cancelled", parser.ErrCancelled, "Parse cancelled"},
		{"watching", watcher.ErrAlreadyWatching, "already being watched"},
		{"other", errors.New("disk on fire"), "disk on fire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatParseError(tt.err, 60)
			if !strings.Contains(got, tt.want) {
				t.Errorf("FormatParseError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatParseError_Wraps(t *testing.T) {
	got := FormatParseError(fmt.Errorf("%w: x", parser.ErrInvalidFormat), 30)
	for _, line := range strings.Split(got, "\n") {
		// wordwrap never breaks inside a word, so only single long words may exceed
		if len(line) > 30 && strings.Contains(strings.TrimSpace(line), " ") {
			t.Errorf("line exceeds width: %q", line)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"/very/long/path/app.db", 10, "/very/lon…"},
		{"abc", 1, "a"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
