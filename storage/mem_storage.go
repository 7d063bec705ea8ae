package storage

import (
	"fmt"

	"github.com/dsnet/golib/memfile"
	"github.com/jamekuma/Database-lab2/common"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sasha-s/go-deadlock"
	"github.com/tidwall/btree"
)

// MemDBFile implements DBFile on an in-memory file. Nothing survives the process; it backs tests and the
// in-memory mode of the CLI. Page numbers start at 1 and deleted numbers are reused lowest first.
type MemDBFile struct {
	id common.FileID
	mu deadlock.RWMutex
	// guarded by mu
	data        *memfile.File
	nextPageNum common.PageNum
	freed       *btree.BTreeG[common.PageNum]
}

// NewMemDBFile creates an empty in-memory file with the given identity.
func NewMemDBFile(id common.FileID) *MemDBFile {
	return &MemDBFile{
		id:          id,
		data:        memfile.New(make([]byte, 0)),
		nextPageNum: 1,
		freed: btree.NewBTreeG(func(a, b common.PageNum) bool {
			return a < b
		}),
	}
}

func memPageOffset(pageNum common.PageNum) int64 {
	return int64(pageNum-1) * int64(common.PageSize)
}

// ID returns the identity the file was created with.
func (f *MemDBFile) ID() common.FileID {
	return f.id
}

// AllocatePage hands out the lowest freed page number if any, otherwise appends a page.
func (f *MemDBFile) AllocatePage() (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pageNum, ok := f.freed.Min()
	if ok {
		f.freed.Delete(pageNum)
	} else {
		pageNum = f.nextPageNum
		f.nextPageNum++
	}

	newPage := NewPage(pageNum)
	if _, err := f.data.WriteAt(newPage, memPageOffset(pageNum)); err != nil {
		return nil, fmt.Errorf("failed to initialize page %d: %w", pageNum, err)
	}
	return newPage, nil
}

func (f *MemDBFile) isAllocated(pageNum common.PageNum) bool {
	if pageNum < 1 || pageNum >= f.nextPageNum {
		return false
	}
	_, freed := f.freed.Get(pageNum)
	return !freed
}

// ReadPage copies the page into dst.
func (f *MemDBFile) ReadPage(pageNum common.PageNum, dst Page) error {
	common.Assert(len(dst) == common.PageSize, "buffer size must match PageSize")
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.isAllocated(pageNum) {
		return pageNotAllocated(f.id, pageNum)
	}
	_, err := f.data.ReadAt(dst, memPageOffset(pageNum))
	return err
}

// WritePage stores p at the page number recorded in its header.
func (f *MemDBFile) WritePage(p Page) error {
	common.Assert(len(p) == common.PageSize, "buffer size must match PageSize")
	// memfile is not safe for concurrent writers
	f.mu.Lock()
	defer f.mu.Unlock()

	pageNum := p.PageNum()
	if !f.isAllocated(pageNum) {
		return pageNotAllocated(f.id, pageNum)
	}
	_, err := f.data.WriteAt(p, memPageOffset(pageNum))
	return err
}

// DeletePage frees the page number for reuse.
func (f *MemDBFile) DeletePage(pageNum common.PageNum) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isAllocated(pageNum) {
		return pageNotAllocated(f.id, pageNum)
	}
	f.freed.Set(pageNum)
	return nil
}

func (f *MemDBFile) Sync() error {
	return nil
}

func (f *MemDBFile) Close() error {
	return nil
}

// NumPages returns the number of allocated pages.
func (f *MemDBFile) NumPages() (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int(f.nextPageNum-1) - f.freed.Len(), nil
}

// MemDBFileManager is a DBFileManager whose files live in memory.
type MemDBFileManager struct {
	files *xsync.MapOf[common.FileID, *MemDBFile]
}

func NewMemStorageManager() *MemDBFileManager {
	return &MemDBFileManager{
		files: xsync.NewMapOf[common.FileID, *MemDBFile](),
	}
}

// GetDBFile returns the file registered under fid, creating an empty one on first use.
func (m *MemDBFileManager) GetDBFile(fid common.FileID) (DBFile, error) {
	if fid == common.InvalidFileID {
		return nil, fmt.Errorf("file id %d is reserved", fid)
	}
	file, _ := m.files.LoadOrCompute(fid, func() *MemDBFile {
		return NewMemDBFile(fid)
	})
	return file, nil
}

// DeleteDBFile drops the file and its contents.
func (m *MemDBFileManager) DeleteDBFile(fid common.FileID) error {
	if _, loaded := m.files.LoadAndDelete(fid); !loaded {
		return fmt.Errorf("file %d does not exist", fid)
	}
	return nil
}

// Close forgets every file.
func (m *MemDBFileManager) Close() error {
	m.files.Range(func(fid common.FileID, _ *MemDBFile) bool {
		m.files.Delete(fid)
		return true
	})
	return nil
}
