package models

// PageType classifies a database page.
type PageType int

const (
	PageTypeUnknown PageType = iota
	PageTypeTableInterior
	PageTypeIndexInterior
	PageTypeTableLeaf
	PageTypeIndexLeaf
	PageTypeFreelistTrunk
	PageTypeFreelistLeaf
	PageTypePayloadOverflow
	PageTypePointerMap
	PageTypeLockByte
)

// Raw b-tree page type bytes found at the start of the page header.
const (
	RawInteriorIndex = 0x02
	RawInteriorTable = 0x05
	RawLeafIndex     = 0x0a
	RawLeafTable     = 0x0d
)

// AllPageTypes lists every page type in display order.
var AllPageTypes = []PageType{
	PageTypeTableInterior,
	PageTypeIndexInterior,
	PageTypeTableLeaf,
	PageTypeIndexLeaf,
	PageTypeFreelistTrunk,
	PageTypeFreelistLeaf,
	PageTypePayloadOverflow,
	PageTypePointerMap,
	PageTypeLockByte,
	PageTypeUnknown,
}

// PageTypeFromByte classifies a raw b-tree page type byte.
func PageTypeFromByte(b byte) PageType {
	switch b {
	case RawInteriorIndex:
		return PageTypeIndexInterior
	case RawInteriorTable:
		return PageTypeTableInterior
	case RawLeafIndex:
		return PageTypeIndexLeaf
	case RawLeafTable:
		return PageTypeTableLeaf
	default:
		return PageTypeUnknown
	}
}

// HasRightmostPointer reports whether pages of this type carry a rightmost
// child pointer. Only interior b-tree pages do.
func (t PageType) HasRightmostPointer() bool {
	return t == PageTypeTableInterior || t == PageTypeIndexInterior
}

// IsBTree reports whether t is one of the four b-tree page types.
func (t PageType) IsBTree() bool {
	switch t {
	case PageTypeTableInterior, PageTypeIndexInterior, PageTypeTableLeaf, PageTypeIndexLeaf:
		return true
	}
	return false
}

// String returns the display name for the page type.
func (t PageType) String() string {
	switch t {
	case PageTypeTableInterior:
		return "Table B-Tree Interior"
	case PageTypeIndexInterior:
		return "Index B-Tree Interior"
	case PageTypeTableLeaf:
		return "Table B-Tree Leaf"
	case PageTypeIndexLeaf:
		return "Index B-Tree Leaf"
	case PageTypeFreelistTrunk:
		return "Freelist Trunk"
	case PageTypeFreelistLeaf:
		return "Freelist Leaf"
	case PageTypePayloadOverflow:
		return "Payload Overflow"
	case PageTypePointerMap:
		return "Pointer Map"
	case PageTypeLockByte:
		return "Lock Byte"
	default:
		return "Unknown"
	}
}

// ShortName returns a three letter code used in compact grids.
func (t PageType) ShortName() string {
	switch t {
	case PageTypeTableInterior:
		return "TBI"
	case PageTypeIndexInterior:
		return "IBI"
	case PageTypeTableLeaf:
		return "TBL"
	case PageTypeIndexLeaf:
		return "IBL"
	case PageTypeFreelistTrunk:
		return "FLT"
	case PageTypeFreelistLeaf:
		return "FLL"
	case PageTypePayloadOverflow:
		return "POF"
	case PageTypePointerMap:
		return "PTR"
	case PageTypeLockByte:
		return "LCK"
	default:
		return "UNK"
	}
}

// Color returns the hex color used to draw pages of this type.
func (t PageType) Color() string {
	switch t {
	case PageTypeTableInterior:
		return "#4CAF50"
	case PageTypeIndexInterior:
		return "#2196F3"
	case PageTypeTableLeaf:
		return "#8BC34A"
	case PageTypeIndexLeaf:
		return "#03DAC6"
	case PageTypeFreelistTrunk:
		return "#FF9800"
	case PageTypeFreelistLeaf:
		return "#FFEB3B"
	case PageTypePayloadOverflow:
		return "#9C27B0"
	case PageTypePointerMap:
		return "#E91E63"
	case PageTypeLockByte:
		return "#607D8B"
	default:
		return "#9E9E9E"
	}
}

// MarshalText encodes the page type as its short name.
func (t PageType) MarshalText() ([]byte, error) {
	return []byte(t.ShortName()), nil
}

// PageInfo describes one physical page.
type PageInfo struct {
	Number          uint32   `json:"page_number"`
	Type            PageType `json:"page_type"`
	CellCount       uint16   `json:"cell_count"`
	FreeSpace       uint32   `json:"free_space"`
	FragmentedBytes uint8    `json:"fragmented_bytes"`
	// RightmostPointer is non-nil only for interior b-tree pages.
	RightmostPointer *uint32 `json:"rightmost_pointer,omitempty"`
}

// UtilizationPercent returns the share of the page not counted as free space.
// The result is always within [0, 100].
func (p PageInfo) UtilizationPercent(pageSize int) float64 {
	if pageSize <= 0 {
		return 0
	}
	free := int(p.FreeSpace)
	if free > pageSize {
		free = pageSize
	}
	return float64(pageSize-free) / float64(pageSize) * 100
}
