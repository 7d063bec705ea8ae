package storage

import (
	"fmt"

	"github.com/jamekuma/Database-lab2/common"
)

// FrameDesc tracks the state of one frame of the buffer pool. A frame is either Invalid (holds no page) or
// Resident, in which case file and pageNum name the page it holds.
//
// Invariant: an Invalid frame has pinCount == 0, dirty == false and referenced == false.
type FrameDesc struct {
	frameID    common.FrameID
	file       DBFile
	pageNum    common.PageNum
	pinCount   int
	dirty      bool
	valid      bool
	referenced bool
}

func newFrameDescs(numFrames int) []FrameDesc {
	descs := make([]FrameDesc, numFrames)
	for i := range descs {
		descs[i].frameID = common.FrameID(i)
		descs[i].Clear()
	}
	return descs
}

// Set makes the frame Resident for (file, pageNum), pinned once, clean and referenced.
func (d *FrameDesc) Set(file DBFile, pageNum common.PageNum) {
	d.file = file
	d.pageNum = pageNum
	d.pinCount = 1
	d.dirty = false
	d.valid = true
	d.referenced = true
}

// Clear returns the frame to Invalid, discarding ownership and flags.
func (d *FrameDesc) Clear() {
	d.file = nil
	d.pageNum = common.InvalidPageNum
	d.pinCount = 0
	d.dirty = false
	d.valid = false
	d.referenced = false
}

func (d *FrameDesc) pin() {
	common.Assert(d.valid, "pinning invalid frame %d", d.frameID)
	d.pinCount++
	d.referenced = true
}

func (d *FrameDesc) unpin() {
	common.Assert(d.pinCount > 0, "frame %d pin count would go negative", d.frameID)
	d.pinCount--
}

// ownedBy reports whether the frame records file as its owner, regardless of validity.
func (d *FrameDesc) ownedBy(file DBFile) bool {
	return d.file != nil && d.file.ID() == file.ID()
}

func (d *FrameDesc) pageID() common.PageID {
	if d.file == nil {
		return common.PageID{}
	}
	return common.PageID{File: d.file.ID(), PageNum: d.pageNum}
}

func (d *FrameDesc) String() string {
	if d.file == nil {
		return fmt.Sprintf("file:none pageNo:%d valid:%t pinCnt:%d dirty:%t refbit:%t",
			d.pageNum, d.valid, d.pinCount, d.dirty, d.referenced)
	}
	return fmt.Sprintf("file:%d pageNo:%d valid:%t pinCnt:%d dirty:%t refbit:%t",
		d.file.ID(), d.pageNum, d.valid, d.pinCount, d.dirty, d.referenced)
}

// FrameInfo is a read-only snapshot of a FrameDesc, used by BufferManager.Dump.
type FrameInfo struct {
	Frame      common.FrameID
	Page       common.PageID
	PinCount   int
	Dirty      bool
	Valid      bool
	Referenced bool
}

func (d *FrameDesc) info() FrameInfo {
	return FrameInfo{
		Frame:      d.frameID,
		Page:       d.pageID(),
		PinCount:   d.pinCount,
		Dirty:      d.dirty,
		Valid:      d.valid,
		Referenced: d.referenced,
	}
}
