package storage

import (
	"encoding/binary"

	"github.com/jamekuma/Database-lab2/common"
	"github.com/ncw/directio"
)

// pageOffsetPageNum is the byte offset of the page number within the page header.
const pageOffsetPageNum = 0

// Page is a view over exactly common.PageSize bytes holding one on-disk page. The first common.PageHeaderSize
// bytes form the header, which records the page's number in its file; the rest is payload owned by the layers
// above the buffer manager.
type Page []byte

// NewPage allocates a standalone, zeroed, block-aligned page carrying pageNum in its header.
func NewPage(pageNum common.PageNum) Page {
	p := Page(directio.AlignedBlock(common.PageSize))
	p.setPageNum(pageNum)
	return p
}

// newPagePool allocates numPages contiguous pages backed by a single block-aligned allocation.
func newPagePool(numPages int) []Page {
	block := directio.AlignedBlock(numPages * common.PageSize)
	pages := make([]Page, numPages)
	for i := range pages {
		// full slice expression so a page can never be re-sliced into its neighbour
		pages[i] = Page(block[i*common.PageSize : (i+1)*common.PageSize : (i+1)*common.PageSize])
	}
	return pages
}

// PageNum returns the page number recorded in the header.
func (p Page) PageNum() common.PageNum {
	return common.PageNum(binary.LittleEndian.Uint32(p[pageOffsetPageNum:]))
}

func (p Page) setPageNum(pageNum common.PageNum) {
	binary.LittleEndian.PutUint32(p[pageOffsetPageNum:], uint32(pageNum))
}

// Data returns the payload following the header. Writes through the returned slice modify the page.
func (p Page) Data() []byte {
	return p[common.PageHeaderSize:]
}

// reset zeroes the page and stamps pageNum into its header.
func (p Page) reset(pageNum common.PageNum) {
	clear(p)
	p.setPageNum(pageNum)
}
