package storage

import (
	"github.com/jamekuma/Database-lab2/common"
)

// AllocationMapPage is the header page (page 0) of a DiskDBFile. It records which page numbers of the file
// are currently allocated.
//
// Layout:
// PageNum (4) | Padding (4) | Bitmap
// - Bit 'i' corresponds to page number 'i' of the file.
// - 0 indicates the page is free (never allocated, or deleted).
// - 1 indicates the page is allocated.
// The first bit tracks the allocation map itself and is therefore always set.
type AllocationMapPage struct {
	Page
	Bitmap Bitmap
}

// AllocationMapPageSlots defines the number of pages a single allocation map can track, and therefore the
// maximum number of pages of a DiskDBFile including the map itself.
const AllocationMapPageSlots = (common.PageSize - common.PageHeaderSize) * 8

const allocationMapPageNum common.PageNum = 0

// InitializeAllocationMapPage formats a raw page to function as an empty allocation map.
func InitializeAllocationMapPage(p Page) {
	p.reset(allocationMapPageNum)
	bitmap := AsBitmap(p.Data(), AllocationMapPageSlots)
	bitmap.SetBit(int(allocationMapPageNum), true)
}

// AsAllocationMapPage casts a generic Page into an AllocationMapPage. The caller is responsible for ensuring
// that the underlying page has been initialized via InitializeAllocationMapPage.
func AsAllocationMapPage(p Page) AllocationMapPage {
	result := AllocationMapPage{
		Page:   p,
		Bitmap: AsBitmap(p.Data(), AllocationMapPageSlots),
	}
	common.Assert(result.Bitmap.LoadBit(int(allocationMapPageNum)), "allocation map page should be initialized")
	return result
}

// IsAllocated reports whether pageNum is currently allocated.
func (amp AllocationMapPage) IsAllocated(pageNum common.PageNum) bool {
	if pageNum <= allocationMapPageNum || int(pageNum) >= AllocationMapPageSlots {
		return false
	}
	return amp.Bitmap.LoadBit(int(pageNum))
}

// FindFirstFreePage returns the lowest free page number, or common.InvalidPageNum if the map is full.
func (amp AllocationMapPage) FindFirstFreePage() common.PageNum {
	// bit 0 is always set, so a wrap-around result can never be the map itself
	idx := amp.Bitmap.FindFirstZero(1)
	if idx == -1 {
		return common.InvalidPageNum
	}
	return common.PageNum(idx)
}

// MarkAllocated updates the allocation status of a page. Returns true if the status actually changed.
func (amp AllocationMapPage) MarkAllocated(pageNum common.PageNum, allocated bool) (flipped bool) {
	common.Assert(pageNum > allocationMapPageNum && int(pageNum) < AllocationMapPageSlots, "indexing out of bounds")
	return amp.Bitmap.SetBit(int(pageNum), allocated) != allocated
}
