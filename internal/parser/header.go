// Package parser decodes SQLite file and page headers without using SQLite.
package parser

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/willibrandon/pageview/internal/models"
)

// Header offsets - byte positions in the 100-byte database header
const (
	offsetMagic             = 0
	offsetPageSize          = 16
	offsetWriteVersion      = 18
	offsetReadVersion       = 19
	offsetReservedSpace     = 20
	offsetMaxPayloadFrac    = 21
	offsetMinPayloadFrac    = 22
	offsetLeafPayloadFrac   = 23
	offsetFileChangeCounter = 24
	offsetDatabaseSize      = 28
	offsetFirstFreelist     = 32
	offsetFreelistCount     = 36
	offsetSchemaCookie      = 40
	offsetSchemaFormat      = 44
	offsetDefaultCacheSize  = 48
	offsetLargestRootPage   = 52
	offsetTextEncoding      = 56
	offsetUserVersion       = 60
	offsetIncrVacuum        = 64
	offsetAppID             = 68
	// 20 reserved bytes at 72..91 are skipped.
	offsetVersionValidFor = 92
	offsetSQLiteVersion   = 96
)

// ReadHeader reads exactly 100 bytes from offset 0 of r and decodes them.
// A short file yields a wrapped io.ErrUnexpectedEOF (or io.EOF when empty).
// Magic validity is not checked here.
func ReadHeader(r io.ReadSeeker) (models.DatabaseHeader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return models.DatabaseHeader{}, fmt.Errorf("seek to header: %w", err)
	}
	data := make([]byte, models.HeaderSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return models.DatabaseHeader{}, fmt.Errorf("read header: %w", err)
	}
	return DecodeHeader(data)
}

// DecodeHeader decodes a 100-byte header. All multi-byte fields are big-endian.
func DecodeHeader(data []byte) (models.DatabaseHeader, error) {
	var h models.DatabaseHeader
	if len(data) < models.HeaderSize {
		return h, fmt.Errorf("invalid header size: got %d, want %d: %w", len(data), models.HeaderSize, io.ErrUnexpectedEOF)
	}

	be := binary.BigEndian
	copy(h.Magic[:], data[offsetMagic:offsetMagic+16])
	h.PageSize = be.Uint16(data[offsetPageSize:])

	h.WriteVersion = data[offsetWriteVersion]
	h.ReadVersion = data[offsetReadVersion]
	h.ReservedSpace = data[offsetReservedSpace]
	h.MaxPayloadFrac = data[offsetMaxPayloadFrac]
	h.MinPayloadFrac = data[offsetMinPayloadFrac]
	h.LeafPayloadFrac = data[offsetLeafPayloadFrac]

	h.FileChangeCounter = be.Uint32(data[offsetFileChangeCounter:])
	h.DatabaseSize = be.Uint32(data[offsetDatabaseSize:])
	h.FirstFreelistTrunk = be.Uint32(data[offsetFirstFreelist:])
	h.FreelistCount = be.Uint32(data[offsetFreelistCount:])
	h.SchemaCookie = be.Uint32(data[offsetSchemaCookie:])
	h.SchemaFormat = be.Uint32(data[offsetSchemaFormat:])
	h.DefaultCacheSize = be.Uint32(data[offsetDefaultCacheSize:])
	h.LargestRootPage = be.Uint32(data[offsetLargestRootPage:])
	h.TextEncoding = be.Uint32(data[offsetTextEncoding:])
	h.UserVersion = be.Uint32(data[offsetUserVersion:])
	h.IncrementalVacuum = be.Uint32(data[offsetIncrVacuum:])
	h.ApplicationID = be.Uint32(data[offsetAppID:])
	h.VersionValidFor = be.Uint32(data[offsetVersionValidFor:])
	h.SQLiteVersion = be.Uint32(data[offsetSQLiteVersion:])

	return h, nil
}
