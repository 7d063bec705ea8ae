package common

import (
	"encoding/binary"
	"fmt"
)

const (
	PageSize int = 4096
	// PageHeaderSize is the number of bytes at the start of every page reserved for the page number (4) and
	// padding (4), keeping the payload 8-byte aligned.
	PageHeaderSize int = 8
)

// FileID is a unique identifier for an open page file.
type FileID uint32

const InvalidFileID FileID = 0

// PageNum is the logical number of a page within its file. Page numbers start at 1.
type PageNum int32

const InvalidPageNum PageNum = 0

// FrameID indexes a frame in the buffer pool.
type FrameID int

const InvalidFrameID FrameID = -1

// PageID uniquely identifies a page across all files.
type PageID struct {
	File    FileID
	PageNum PageNum
}

// PageIDSize is the serialized size of a PageID (FileID (4) + PageNum (4) = 8)
const PageIDSize = 8

func (p PageID) String() string {
	return fmt.Sprintf("Page(%d, %d)", p.File, p.PageNum)
}

// WriteTo serializes the PageID into the provided buffer. The buffer must be large enough to hold a PageID.
func (p PageID) WriteTo(data []byte) {
	if len(data) < PageIDSize {
		panic("buffer too small")
	}
	binary.LittleEndian.PutUint32(data, uint32(p.File))
	binary.LittleEndian.PutUint32(data[4:], uint32(p.PageNum))
}
