package models

import (
	"encoding/json"
	"testing"
)

func TestActualPageSize(t *testing.T) {
	tests := []struct {
		raw  uint16
		want int
	}{
		{1, 65536},
		{512, 512},
		{4096, 4096},
		{32768, 32768},
		{0, 0},
	}
	for _, tt := range tests {
		h := DatabaseHeader{PageSize: tt.raw}
		if got := h.ActualPageSize(); got != tt.want {
			t.Errorf("ActualPageSize(%d) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestIsValidSQLiteFile(t *testing.T) {
	var h DatabaseHeader
	copy(h.Magic[:], MagicString)
	if !h.IsValidSQLiteFile() {
		t.Error("expected valid magic")
	}

	h.Magic[15] = 'x'
	if h.IsValidSQLiteFile() {
		t.Error("expected invalid magic when the NUL terminator is wrong")
	}
}

func TestHeaderDisplayHelpers(t *testing.T) {
	h := DatabaseHeader{TextEncoding: EncodingUTF16LE, SQLiteVersion: 3045001}
	if got := h.TextEncodingName(); got != "UTF-16le" {
		t.Errorf("TextEncodingName() = %q", got)
	}
	if got := h.SQLiteVersionString(); got != "3.45.1" {
		t.Errorf("SQLiteVersionString() = %q", got)
	}
	h.TextEncoding = 9
	if got := h.TextEncodingName(); got != "unknown (9)" {
		t.Errorf("TextEncodingName() = %q", got)
	}
}

func TestPageTypeFromByte(t *testing.T) {
	tests := map[byte]PageType{
		0x02: PageTypeIndexInterior,
		0x05: PageTypeTableInterior,
		0x0a: PageTypeIndexLeaf,
		0x0d: PageTypeTableLeaf,
		0x00: PageTypeUnknown,
		0xff: PageTypeUnknown,
		0x0c: PageTypeUnknown,
	}
	for b, want := range tests {
		if got := PageTypeFromByte(b); got != want {
			t.Errorf("PageTypeFromByte(0x%02x) = %v, want %v", b, got, want)
		}
	}
}

func TestHasRightmostPointer_OnlyInterior(t *testing.T) {
	for _, pt := range AllPageTypes {
		want := pt == PageTypeTableInterior || pt == PageTypeIndexInterior
		if got := pt.HasRightmostPointer(); got != want {
			t.Errorf("%v.HasRightmostPointer() = %v, want %v", pt, got, want)
		}
	}
}

func TestPageTypeNamesAreDistinct(t *testing.T) {
	names := make(map[string]bool)
	shorts := make(map[string]bool)
	for _, pt := range AllPageTypes {
		if names[pt.String()] || shorts[pt.ShortName()] {
			t.Errorf("duplicate name for %v", pt)
		}
		names[pt.String()] = true
		shorts[pt.ShortName()] = true
		if len(pt.Color()) != 7 {
			t.Errorf("%v.Color() = %q, want #RRGGBB", pt, pt.Color())
		}
	}
}

func TestUtilizationPercent(t *testing.T) {
	p := PageInfo{FreeSpace: 1024}
	if got := p.UtilizationPercent(4096); got != 75 {
		t.Errorf("UtilizationPercent = %v, want 75", got)
	}

	// Free space larger than the page is clamped instead of going negative.
	p.FreeSpace = 9000
	if got := p.UtilizationPercent(4096); got != 0 {
		t.Errorf("UtilizationPercent = %v, want 0", got)
	}

	if got := p.UtilizationPercent(0); got != 0 {
		t.Errorf("UtilizationPercent(0) = %v, want 0", got)
	}
}

func sampleInfo() *DatabaseInfo {
	var h DatabaseHeader
	copy(h.Magic[:], MagicString)
	h.PageSize = 1024
	rp := uint32(3)
	pages := map[uint32]PageInfo{
		3: {Number: 3, Type: PageTypeTableLeaf, CellCount: 4, FreeSpace: 512},
		1: {Number: 1, Type: PageTypeTableInterior, CellCount: 1, FreeSpace: 256, RightmostPointer: &rp},
		2: {Number: 2, Type: PageTypeTableLeaf, CellCount: 10, FreeSpace: 0},
	}
	return NewDatabaseInfo(h, pages, 4096, []uint32{4})
}

func TestDatabaseInfo_SnapshotNotMutableThroughAccessors(t *testing.T) {
	info := sampleInfo()

	skipped := info.SkippedPages()
	skipped[0] = 99
	if got := info.SkippedPages(); got[0] != 4 {
		t.Errorf("SkippedPages()[0] = %d after caller mutation, want 4", got[0])
	}

	h := info.Header()
	h.PageSize = 4096
	h.DatabaseSize = 12345
	if info.PageSize() != 1024 {
		t.Errorf("PageSize() = %d after caller mutation, want 1024", info.PageSize())
	}
	if info.Header().DatabaseSize == 12345 {
		t.Error("Header() returned a shared value")
	}
}

func TestDatabaseInfo_Accessors(t *testing.T) {
	info := sampleInfo()

	if info.PageCount() != 3 {
		t.Fatalf("PageCount() = %d, want 3", info.PageCount())
	}
	pages := info.Pages()
	for i, p := range pages {
		if p.Number != uint32(i+1) {
			t.Errorf("Pages()[%d].Number = %d", i, p.Number)
		}
	}
	if _, ok := info.GetPage(4); ok {
		t.Error("page 4 was skipped and should be absent")
	}
	if skipped := info.SkippedPages(); len(skipped) != 1 || skipped[0] != 4 {
		t.Errorf("SkippedPages() = %v", skipped)
	}
	if info.SkippedCount() != 1 {
		t.Errorf("SkippedCount() = %d, want 1", info.SkippedCount())
	}
	if info.TotalFileSize() != 4096 {
		t.Errorf("TotalFileSize() = %d, want 4096", info.TotalFileSize())
	}

	leaves := info.PagesByType(PageTypeTableLeaf)
	if len(leaves) != 2 || leaves[0].Number != 2 || leaves[1].Number != 3 {
		t.Errorf("PagesByType(leaf) = %+v", leaves)
	}
	if got := info.TypeCounts()[PageTypeTableLeaf]; got != 2 {
		t.Errorf("TypeCounts()[leaf] = %d", got)
	}
	if got := info.TotalFreeSpace(); got != 768 {
		t.Errorf("TotalFreeSpace() = %d, want 768", got)
	}

	// (75 + 100 + 50) / 3
	if got := info.AverageUtilization(); got != 75 {
		t.Errorf("AverageUtilization() = %v, want 75", got)
	}
	utils := info.Utilizations()
	if len(utils) != 3 || utils[0] != 75 || utils[1] != 100 || utils[2] != 50 {
		t.Errorf("Utilizations() = %v", utils)
	}
}

func TestDatabaseInfo_Empty(t *testing.T) {
	info := NewDatabaseInfo(DatabaseHeader{PageSize: 4096}, nil, 0, nil)
	if info.PageCount() != 0 {
		t.Errorf("PageCount() = %d", info.PageCount())
	}
	if info.AverageUtilization() != 0 {
		t.Errorf("AverageUtilization() = %v", info.AverageUtilization())
	}
}

func TestPageInfo_JSON(t *testing.T) {
	rp := uint32(9)
	data, err := json.Marshal(PageInfo{Number: 2, Type: PageTypeIndexInterior, RightmostPointer: &rp})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"page_number":2,"page_type":"IBI","cell_count":0,"free_space":0,"fragmented_bytes":0,"rightmost_pointer":9}`
	if string(data) != want {
		t.Errorf("json = %s\nwant %s", data, want)
	}
}
