package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/willibrandon/pageview/internal/models"
)

// pageSpec describes the page header written into a synthetic file.
type pageSpec struct {
	rawType      byte
	cellCount    uint16
	contentStart uint16
	fragmented   byte
	rightmost    uint32
}

// buildFile assembles a SQLite-shaped byte image: a valid file header on
// page 1 followed by the given page headers at their page offsets.
func buildFile(pageSize int, freelistTrunk uint32, pages []pageSpec) []byte {
	data := make([]byte, pageSize*len(pages))

	copy(data[0:16], models.MagicString)
	if pageSize == models.MaxPageSize {
		binary.BigEndian.PutUint16(data[16:], 1)
	} else {
		binary.BigEndian.PutUint16(data[16:], uint16(pageSize))
	}
	data[18], data[19] = 1, 1
	data[21], data[22], data[23] = 64, 32, 32
	binary.BigEndian.PutUint32(data[24:], 7)
	binary.BigEndian.PutUint32(data[28:], uint32(len(pages)))
	binary.BigEndian.PutUint32(data[32:], freelistTrunk)
	binary.BigEndian.PutUint32(data[44:], 4)
	binary.BigEndian.PutUint32(data[56:], models.EncodingUTF8)
	binary.BigEndian.PutUint32(data[96:], 3045001)

	for i, p := range pages {
		off := i * pageSize
		if i == 0 {
			off += models.HeaderSize
		}
		data[off] = p.rawType
		binary.BigEndian.PutUint16(data[off+3:], p.cellCount)
		binary.BigEndian.PutUint16(data[off+5:], p.contentStart)
		data[off+7] = p.fragmented
		if models.PageTypeFromByte(p.rawType).HasRightmostPointer() {
			binary.BigEndian.PutUint32(data[off+8:], p.rightmost)
		}
	}
	return data
}

// scenarioFile is the three-page layout used throughout the tests: page 1
// a table leaf with 2 cells and 3000 free bytes, pages 2 and 3 table interiors.
func scenarioFile() []byte {
	return buildFile(4096, 0, []pageSpec{
		{rawType: models.RawLeafTable, cellCount: 2, contentStart: 100 + 8 + 4 + 3000},
		{rawType: models.RawInteriorTable, cellCount: 3, contentStart: 4000, rightmost: 3},
		{rawType: models.RawInteriorTable, cellCount: 1, contentStart: 4090, rightmost: 2},
	})
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

var errInjected = errors.New("injected read failure")

// faultyReader fails positioned reads that touch [failFrom, failTo).
type faultyReader struct {
	*bytes.Reader
	failFrom, failTo int64
}

func (f *faultyReader) ReadAt(p []byte, off int64) (int, error) {
	if off < f.failTo && off+int64(len(p)) > f.failFrom {
		return 0, errInjected
	}
	return f.Reader.ReadAt(p, off)
}
