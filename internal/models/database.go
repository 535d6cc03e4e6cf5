package models

import "sort"

// DatabaseInfo is an immutable snapshot of a parsed file. Consumers share a
// pointer to it; a reparse produces a new value instead of mutating this one.
type DatabaseInfo struct {
	header   DatabaseHeader
	fileSize uint64
	skipped  []uint32

	pages map[uint32]PageInfo
	order []uint32
}

// NewDatabaseInfo builds a snapshot. The pages map is owned by the snapshot
// after the call and must not be modified by the caller.
func NewDatabaseInfo(header DatabaseHeader, pages map[uint32]PageInfo, totalFileSize uint64, skipped []uint32) *DatabaseInfo {
	if pages == nil {
		pages = make(map[uint32]PageInfo)
	}
	order := make([]uint32, 0, len(pages))
	for n := range pages {
		order = append(order, n)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	skippedCopy := append([]uint32(nil), skipped...)
	sort.Slice(skippedCopy, func(i, j int) bool { return skippedCopy[i] < skippedCopy[j] })

	return &DatabaseInfo{
		header:   header,
		fileSize: totalFileSize,
		skipped:  skippedCopy,
		pages:    pages,
		order:    order,
	}
}

// Header returns a copy of the decoded file header.
func (d *DatabaseInfo) Header() DatabaseHeader {
	return d.header
}

// TotalFileSize returns the size of the file in bytes when it was parsed.
func (d *DatabaseInfo) TotalFileSize() uint64 {
	return d.fileSize
}

// SkippedPages returns, in ascending order, the pages whose header could not
// be read. The slice is a copy.
func (d *DatabaseInfo) SkippedPages() []uint32 {
	return append([]uint32(nil), d.skipped...)
}

// SkippedCount returns the number of pages that could not be read.
func (d *DatabaseInfo) SkippedCount() int {
	return len(d.skipped)
}

// PageSize returns the header's effective page size.
func (d *DatabaseInfo) PageSize() int {
	return d.header.ActualPageSize()
}

// PageCount returns the number of successfully decoded pages.
func (d *DatabaseInfo) PageCount() int {
	return len(d.pages)
}

// GetPage returns the page with the given 1-based number.
func (d *DatabaseInfo) GetPage(number uint32) (PageInfo, bool) {
	p, ok := d.pages[number]
	return p, ok
}

// Pages returns all decoded pages ordered by page number.
func (d *DatabaseInfo) Pages() []PageInfo {
	result := make([]PageInfo, len(d.order))
	for i, n := range d.order {
		result[i] = d.pages[n]
	}
	return result
}

// PagesByType returns the pages of one type ordered by page number.
func (d *DatabaseInfo) PagesByType(t PageType) []PageInfo {
	var result []PageInfo
	for _, n := range d.order {
		if p := d.pages[n]; p.Type == t {
			result = append(result, p)
		}
	}
	return result
}

// TypeCounts returns the number of pages per type.
func (d *DatabaseInfo) TypeCounts() map[PageType]int {
	counts := make(map[PageType]int)
	for _, p := range d.pages {
		counts[p.Type]++
	}
	return counts
}

// TotalFreeSpace sums the free bytes of every decoded page.
func (d *DatabaseInfo) TotalFreeSpace() uint64 {
	var total uint64
	for _, p := range d.pages {
		total += uint64(p.FreeSpace)
	}
	return total
}

// AverageUtilization returns the mean page utilization, or 0 with no pages.
func (d *DatabaseInfo) AverageUtilization() float64 {
	if len(d.pages) == 0 {
		return 0
	}
	pageSize := d.PageSize()
	var sum float64
	for _, p := range d.pages {
		sum += p.UtilizationPercent(pageSize)
	}
	return sum / float64(len(d.pages))
}

// Utilizations returns per-page utilization in page order.
func (d *DatabaseInfo) Utilizations() []float64 {
	pageSize := d.PageSize()
	result := make([]float64, len(d.order))
	for i, n := range d.order {
		result[i] = d.pages[n].UtilizationPercent(pageSize)
	}
	return result
}
