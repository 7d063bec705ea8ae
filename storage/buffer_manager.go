package storage

import (
	"fmt"
	"io"

	"github.com/jamekuma/Database-lab2/common"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// BufferManager mediates every access to on-disk pages through a fixed pool of page-sized frames. Pages are
// pinned while in use; unpinned pages are evicted with the clock (second-chance) policy, and dirty pages are
// written back to their file before their frame is reused.
//
// A BufferManager is driven by a single caller and is not safe for concurrent use. The pool, the frame
// descriptors, the clock hand and the page directory belong to the instance and are only changed by its
// methods.
type BufferManager struct {
	numFrames int
	pool      []Page
	descs     []FrameDesc
	clockHand common.FrameID
	directory PageDirectory
	logger    *zap.Logger
}

// PageHandle gives access to a pinned page in the pool. It is only meaningful until the matching UnpinPage;
// after that the frame may be reused for another page.
type PageHandle struct {
	frame common.FrameID
	page  Page
}

// Frame returns the frame holding the page.
func (h PageHandle) Frame() common.FrameID {
	return h.frame
}

// Page returns the full page, header included.
func (h PageHandle) Page() Page {
	return h.page
}

// PageNum returns the number of the page in its file.
func (h PageHandle) PageNum() common.PageNum {
	return h.page.PageNum()
}

// Data returns the writable payload of the page. Callers that modify it must unpin with dirty set.
func (h PageHandle) Data() []byte {
	return h.page.Data()
}

// NewBufferManager creates a BufferManager with opts.NumFrames frames, all initially free.
func NewBufferManager(opts Options) (*BufferManager, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BufferManager{
		numFrames: opts.NumFrames,
		pool:      newPagePool(opts.NumFrames),
		descs:     newFrameDescs(opts.NumFrames),
		// the first advance lands on frame 0
		clockHand: common.FrameID(opts.NumFrames - 1),
		directory: newPageDirectory(opts.Directory, opts.NumFrames),
		logger:    logger,
	}, nil
}

// NumFrames returns the capacity of the pool.
func (bm *BufferManager) NumFrames() int {
	return bm.numFrames
}

func (bm *BufferManager) handle(frame common.FrameID) PageHandle {
	return PageHandle{frame: frame, page: bm.pool[frame]}
}

func (bm *BufferManager) advanceClock() {
	bm.clockHand = (bm.clockHand + 1) % common.FrameID(bm.numFrames)
}

// allocBuf selects a victim frame with the clock policy and returns it cleared. A dirty victim is written back
// first; if that write fails, the victim stays resident and the error is returned.
func (bm *BufferManager) allocBuf() (common.FrameID, error) {
	pinned := 0
	for {
		bm.advanceClock()
		desc := &bm.descs[bm.clockHand]
		if !desc.valid {
			break
		}
		if desc.referenced {
			desc.referenced = false
			continue
		}
		if desc.pinCount > 0 {
			// only counted when the referenced bit is already clear
			pinned++
			if pinned == bm.numFrames {
				return common.InvalidFrameID, common.NewBufError(common.BufferExceededError,
					"all %d frames are pinned", bm.numFrames)
			}
			continue
		}
		break
	}

	frame := bm.clockHand
	desc := &bm.descs[frame]
	if desc.valid {
		pid := desc.pageID()
		if desc.dirty {
			if err := desc.file.WritePage(bm.pool[frame]); err != nil {
				return common.InvalidFrameID, fmt.Errorf("failed to write back %s from frame %d: %w", pid.String(), frame, err)
			}
			bm.logger.Debug("wrote back dirty victim", zap.Int("frame", int(frame)), zap.Stringer("page", pid))
		}
		if err := bm.forget(frame); err != nil {
			return common.InvalidFrameID, err
		}
		bm.logger.Debug("evicted page", zap.Int("frame", int(frame)), zap.Stringer("page", pid))
	}
	desc.Clear()
	return frame, nil
}

// forget removes the directory entry of a resident frame and clears its descriptor.
func (bm *BufferManager) forget(frame common.FrameID) error {
	desc := &bm.descs[frame]
	pid := desc.pageID()
	if err := bm.directory.Remove(pid); err != nil {
		bm.logger.Error("page directory out of sync", zap.Int("frame", int(frame)), zap.Stringer("page", pid), zap.Error(err))
		return common.NewBufError(common.BadBufferError, "frame %d holds %s but the directory disagrees: %v", frame, pid.String(), err)
	}
	desc.Clear()
	return nil
}

// ReadPage returns a handle to page pageNum of file, pinning it. If the page is already resident no I/O is
// performed; otherwise a victim frame is chosen and the page is read into it. Every successful call must be
// matched by an UnpinPage.
func (bm *BufferManager) ReadPage(file DBFile, pageNum common.PageNum) (PageHandle, error) {
	pid := common.PageID{File: file.ID(), PageNum: pageNum}
	if frame, ok := bm.directory.Lookup(pid); ok {
		bm.descs[frame].pin()
		return bm.handle(frame), nil
	}

	frame, err := bm.allocBuf()
	if err != nil {
		return PageHandle{}, err
	}
	// on failure the frame stays cleared and is picked up by the next sweep
	if err := file.ReadPage(pageNum, bm.pool[frame]); err != nil {
		return PageHandle{}, err
	}
	if err := bm.directory.Insert(pid, frame); err != nil {
		return PageHandle{}, err
	}
	bm.descs[frame].Set(file, pageNum)
	return bm.handle(frame), nil
}

// UnpinPage releases one pin on the page. If dirty is set, the page will be written back before its frame is
// reused; a false dirty never clears an earlier mark. Unpinning a page that is not resident is a no-op.
func (bm *BufferManager) UnpinPage(file DBFile, pageNum common.PageNum, dirty bool) error {
	pid := common.PageID{File: file.ID(), PageNum: pageNum}
	frame, ok := bm.directory.Lookup(pid)
	if !ok {
		return nil
	}
	desc := &bm.descs[frame]
	if desc.pinCount == 0 {
		return common.NewBufError(common.PageNotPinnedError, "%s in frame %d is not pinned", pid.String(), frame)
	}
	desc.unpin()
	if dirty {
		desc.dirty = true
	}
	return nil
}

// AllocatePage allocates a new page in file and brings it into the pool, pinned once. It returns the new page's
// number and a handle to it.
func (bm *BufferManager) AllocatePage(file DBFile) (common.PageNum, PageHandle, error) {
	newPage, err := file.AllocatePage()
	if err != nil {
		return common.InvalidPageNum, PageHandle{}, err
	}
	pageNum := newPage.PageNum()

	frame, err := bm.allocBuf()
	if err != nil {
		return common.InvalidPageNum, PageHandle{}, err
	}
	copy(bm.pool[frame], newPage)

	pid := common.PageID{File: file.ID(), PageNum: pageNum}
	if err := bm.directory.Insert(pid, frame); err != nil {
		return common.InvalidPageNum, PageHandle{}, err
	}
	bm.descs[frame].Set(file, pageNum)
	return pageNum, bm.handle(frame), nil
}

// DisposePage deletes a page from file. If the page is resident its frame is released immediately, even if it
// is pinned or dirty: the caller guarantees nobody needs the page anymore.
func (bm *BufferManager) DisposePage(file DBFile, pageNum common.PageNum) error {
	pid := common.PageID{File: file.ID(), PageNum: pageNum}
	if frame, ok := bm.directory.Lookup(pid); ok {
		if err := bm.forget(frame); err != nil {
			return err
		}
		bm.logger.Debug("disposed resident page", zap.Int("frame", int(frame)), zap.Stringer("page", pid))
	}
	return file.DeletePage(pageNum)
}

// FlushFile writes back every dirty page of file and evicts all of its pages from the pool, visiting frames in
// ascending order. It fails on the first pinned page; frames visited before it have already been flushed.
func (bm *BufferManager) FlushFile(file DBFile) error {
	flushed := 0
	for i := range bm.descs {
		frame := common.FrameID(i)
		desc := &bm.descs[frame]
		if !desc.ownedBy(file) {
			continue
		}
		pid := desc.pageID()
		if desc.pinCount > 0 {
			return common.NewBufError(common.PagePinnedError, "%s in frame %d is pinned (%d)", pid.String(), frame, desc.pinCount)
		}
		if !desc.valid {
			bm.logger.Error("invalid frame owned by file", zap.Int("frame", int(frame)), zap.Stringer("desc", desc))
			return common.NewBufError(common.BadBufferError, "frame %d is owned by file %d but not valid: %s",
				frame, file.ID(), desc.String())
		}
		if desc.dirty {
			if err := file.WritePage(bm.pool[frame]); err != nil {
				return fmt.Errorf("failed to flush %s from frame %d: %w", pid.String(), frame, err)
			}
		}
		if err := bm.forget(frame); err != nil {
			return err
		}
		flushed++
	}
	bm.logger.Debug("flushed file", zap.Uint32("file", uint32(file.ID())), zap.Int("frames", flushed))
	return nil
}

// Close writes back every valid dirty frame and releases the pool. Clean frames are discarded. Write-back
// failures do not stop the remaining frames from being written; all of them are returned together. The
// BufferManager must not be used after Close.
func (bm *BufferManager) Close() error {
	if bm.pool == nil {
		return nil
	}
	var err error
	for i := range bm.descs {
		desc := &bm.descs[i]
		if !desc.valid || !desc.dirty {
			continue
		}
		if werr := desc.file.WritePage(bm.pool[i]); werr != nil {
			bm.logger.Error("failed to write back page on close", zap.Int("frame", i),
				zap.Stringer("page", desc.pageID()), zap.Error(werr))
			err = multierr.Append(err, fmt.Errorf("frame %d: %w", i, werr))
		}
	}
	bm.pool = nil
	bm.descs = nil
	bm.directory = nil
	return err
}

// PoolDump is a snapshot of every frame, for debugging and inspection.
type PoolDump struct {
	Frames      []FrameInfo
	ValidFrames int
}

// Dump returns the state of every frame and the number of valid frames.
func (bm *BufferManager) Dump() PoolDump {
	dump := PoolDump{Frames: make([]FrameInfo, 0, len(bm.descs))}
	for i := range bm.descs {
		info := bm.descs[i].info()
		if info.Valid {
			dump.ValidFrames++
		}
		dump.Frames = append(dump.Frames, info)
	}
	return dump
}

// PrintSelf writes one line per frame followed by the total number of valid frames.
func (bm *BufferManager) PrintSelf(w io.Writer) error {
	validFrames := 0
	for i := range bm.descs {
		desc := &bm.descs[i]
		if _, err := fmt.Fprintf(w, "FrameNo:%d %s\n", i, desc.String()); err != nil {
			return err
		}
		if desc.valid {
			validFrames++
		}
	}
	_, err := fmt.Fprintf(w, "Total Number of Valid Frames:%d\n", validFrames)
	return err
}
