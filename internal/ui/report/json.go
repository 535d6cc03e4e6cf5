package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/storage/sqlite"
)

// SummaryView is the JSON form of a snapshot.
type SummaryView struct {
	Path           string                `json:"path"`
	Header         models.DatabaseHeader `json:"header"`
	PageSize       int                   `json:"page_size"`
	PageCount      int                   `json:"page_count"`
	FileSize       uint64                `json:"file_size"`
	TypeCounts     map[string]int        `json:"page_types"`
	TotalFreeSpace uint64                `json:"total_free_space"`
	AvgUtilization float64               `json:"avg_utilization"`
	SkippedPages   []uint32              `json:"skipped_pages"`
	Pages          []models.PageInfo     `json:"pages,omitempty"`
}

// NewSummaryView builds the JSON form of info. Pages are included only when
// withPages is set.
func NewSummaryView(path string, info *models.DatabaseInfo, withPages bool) SummaryView {
	counts := make(map[string]int)
	for t, n := range info.TypeCounts() {
		counts[t.ShortName()] = n
	}

	skipped := info.SkippedPages()
	if skipped == nil {
		skipped = []uint32{}
	}

	v := SummaryView{
		Path:           path,
		Header:         info.Header(),
		PageSize:       info.PageSize(),
		PageCount:      info.PageCount(),
		FileSize:       info.TotalFileSize(),
		TypeCounts:     counts,
		TotalFreeSpace: info.TotalFreeSpace(),
		AvgUtilization: info.AverageUtilization(),
		SkippedPages:   skipped,
	}
	if withPages {
		v.Pages = info.Pages()
	}
	return v
}

// PageView is the JSON form of a single page.
type PageView struct {
	models.PageInfo
	Utilization float64 `json:"utilization"`
	Offset      int64   `json:"offset"`
}

// NewPageView builds the JSON form of page p.
func NewPageView(p models.PageInfo, pageSize int) PageView {
	return PageView{
		PageInfo:    p,
		Utilization: p.UtilizationPercent(pageSize),
		Offset:      pageOffset(p.Number, pageSize),
	}
}

// HistoryView is the JSON form of a stored parse.
type HistoryView struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Path           string    `json:"path"`
	ParsedAt       time.Time `json:"parsed_at"`
	PageCount      int       `json:"page_count"`
	PageSize       int       `json:"page_size"`
	FileSize       int64     `json:"file_size"`
	FreeBytes      int64     `json:"free_bytes"`
	AvgUtilization float64   `json:"avg_utilization"`
	SkippedPages   int       `json:"skipped_pages"`
	DurationMs     float64   `json:"duration_ms"`
	ChangeCounter  int64     `json:"change_counter"`
}

// NewHistoryViews converts stored records.
func NewHistoryViews(records []sqlite.ParseRecord) []HistoryView {
	views := make([]HistoryView, len(records))
	for i, r := range records {
		views[i] = HistoryView(r)
	}
	return views
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
