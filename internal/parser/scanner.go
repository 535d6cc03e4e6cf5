package parser

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/willibrandon/pageview/internal/logger"
	"github.com/willibrandon/pageview/internal/models"
)

// B-tree page header layout
const (
	pageHeaderSizeLeaf     = 8
	pageHeaderSizeInterior = 12
	cellPointerSize        = 2
)

// ScanPage decodes the page header of one page.
//
// Page 1 starts with the 100-byte file header, so its page header begins at
// offset 100 within the page. A page that is the header's first freelist
// trunk page is classified as such regardless of its first byte.
func ScanPage(r io.ReaderAt, header *models.DatabaseHeader, pageSize int, pageNumber uint32) (models.PageInfo, error) {
	if pageNumber == 0 {
		return models.PageInfo{}, &PageError{Page: pageNumber, Err: fmt.Errorf("page numbers start at 1")}
	}

	headerOffset := 0
	if pageNumber == 1 {
		headerOffset = models.HeaderSize
	}
	offset := int64(pageNumber-1)*int64(pageSize) + int64(headerOffset)

	buf := make([]byte, pageHeaderSizeInterior)
	if err := readAt(r, buf[:pageHeaderSizeLeaf], offset); err != nil {
		return models.PageInfo{}, &PageError{Page: pageNumber, Err: err}
	}

	be := binary.BigEndian
	rawType := buf[0]
	// buf[1:3] is the first freeblock offset, unused here.
	cellCount := be.Uint16(buf[3:5])
	contentStartRaw := be.Uint16(buf[5:7])
	fragmented := buf[7]

	pageType := models.PageTypeFromByte(rawType)
	if header.FirstFreelistTrunk != 0 && pageNumber == header.FirstFreelistTrunk {
		pageType = models.PageTypeFreelistTrunk
	}

	info := models.PageInfo{
		Number:          pageNumber,
		Type:            pageType,
		CellCount:       cellCount,
		FragmentedBytes: fragmented,
	}

	pageHeaderSize := pageHeaderSizeLeaf
	if pageType.HasRightmostPointer() {
		if err := readAt(r, buf[pageHeaderSizeLeaf:], offset+pageHeaderSizeLeaf); err != nil {
			return models.PageInfo{}, &PageError{Page: pageNumber, Err: err}
		}
		rightmost := be.Uint32(buf[pageHeaderSizeLeaf:])
		info.RightmostPointer = &rightmost
		pageHeaderSize = pageHeaderSizeInterior
	}

	info.FreeSpace = freeSpace(pageNumber, pageSize, headerOffset+pageHeaderSize, int(cellCount), contentStartRaw)
	return info, nil
}

// freeSpace computes the unallocated gap between the cell pointer array and
// the cell content area. Zero content start means the content area begins at
// the end of the page. The result is clamped to [0, pageSize].
func freeSpace(pageNumber uint32, pageSize, headerBytes, cellCount int, contentStartRaw uint16) uint32 {
	contentStart := int(contentStartRaw)
	if contentStart == 0 {
		contentStart = pageSize
	}
	if contentStart > pageSize {
		logger.Debug("Cell content start beyond page end, clamping",
			"page", pageNumber,
			"content_start", contentStart,
			"page_size", pageSize,
		)
		contentStart = pageSize
	}

	used := headerBytes + cellCount*cellPointerSize
	if used > contentStart {
		logger.Debug("Page header overhead exceeds content start",
			"page", pageNumber,
			"used", used,
			"content_start", contentStart,
		)
		return 0
	}
	return uint32(contentStart - used)
}

// readAt fills buf from offset. An io.EOF that accompanies a full read is
// not an error.
func readAt(r io.ReaderAt, buf []byte, offset int64) error {
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
