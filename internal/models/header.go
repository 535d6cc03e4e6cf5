// Package models contains the in-memory model of a SQLite file's physical layout.
package models

import "fmt"

// SQLite file format constants
const (
	// HeaderSize is the size of the database file header at the start of page 1.
	HeaderSize = 100

	// MagicString identifies a SQLite 3 database file. Exactly 16 bytes
	// including the trailing NUL.
	MagicString = "SQLite format 3\x00"

	// MaxPageSize is the page size encoded as 1 in the header.
	MaxPageSize = 65536
)

// Text encodings stored at header offset 56.
const (
	EncodingUTF8    = 1
	EncodingUTF16LE = 2
	EncodingUTF16BE = 3
)

// DatabaseHeader is the decoded 100-byte SQLite file header.
type DatabaseHeader struct {
	Magic [16]byte `json:"-"`

	// PageSize is the raw stored value. Use ActualPageSize.
	PageSize uint16 `json:"page_size"`

	WriteVersion    uint8 `json:"write_version"`
	ReadVersion     uint8 `json:"read_version"`
	ReservedSpace   uint8 `json:"reserved_space"`
	MaxPayloadFrac  uint8 `json:"max_payload_fraction"`
	MinPayloadFrac  uint8 `json:"min_payload_fraction"`
	LeafPayloadFrac uint8 `json:"leaf_payload_fraction"`

	FileChangeCounter uint32 `json:"file_change_counter"`
	// DatabaseSize is the in-header database size in pages. It may disagree
	// with the size of the file.
	DatabaseSize uint32 `json:"database_size_pages"`
	// FirstFreelistTrunk is the page number of the first freelist trunk page, or 0.
	FirstFreelistTrunk uint32 `json:"first_freelist_trunk_page"`
	FreelistCount      uint32 `json:"total_freelist_pages"`
	SchemaCookie       uint32 `json:"schema_cookie"`
	SchemaFormat       uint32 `json:"schema_format"`
	DefaultCacheSize   uint32 `json:"default_cache_size"`
	LargestRootPage    uint32 `json:"largest_root_btree_page"`
	TextEncoding       uint32 `json:"text_encoding"`
	UserVersion        uint32 `json:"user_version"`
	IncrementalVacuum  uint32 `json:"incremental_vacuum"`
	ApplicationID      uint32 `json:"application_id"`
	VersionValidFor    uint32 `json:"version_valid_for"`
	SQLiteVersion      uint32 `json:"sqlite_version_number"`
}

// ActualPageSize returns the page size in bytes. A stored value of 1 means 65536.
func (h *DatabaseHeader) ActualPageSize() int {
	if h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// IsValidSQLiteFile reports whether the magic string matches.
func (h *DatabaseHeader) IsValidSQLiteFile() bool {
	return string(h.Magic[:]) == MagicString
}

// TextEncodingName returns a display name for the text encoding field.
func (h *DatabaseHeader) TextEncodingName() string {
	switch h.TextEncoding {
	case EncodingUTF8:
		return "UTF-8"
	case EncodingUTF16LE:
		return "UTF-16le"
	case EncodingUTF16BE:
		return "UTF-16be"
	default:
		return fmt.Sprintf("unknown (%d)", h.TextEncoding)
	}
}

// SQLiteVersionString formats the library version that last wrote the file,
// e.g. 3045001 becomes "3.45.1".
func (h *DatabaseHeader) SQLiteVersionString() string {
	v := h.SQLiteVersion
	if v == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d.%d", v/1000000, (v/1000)%1000, v%1000)
}
