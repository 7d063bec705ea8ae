package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamekuma/Database-lab2/common"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DiskDBFile implements the DBFile interface using a standard OS file. Page 0 of the file is an
// AllocationMapPage; data pages start at page number 1. Deleted page numbers are handed out again, lowest first.
type DiskDBFile struct {
	id   common.FileID
	file *os.File
	// allocMu guards the allocation map, the physical size and the allocated count. Reads and writes of
	// page contents only take it shared, to validate the page number.
	allocMu  deadlock.RWMutex
	allocMap AllocationMapPage
	// physPages is the file size in pages, including the allocation map and free pages.
	physPages    int
	numAllocated int
}

// NewDiskDBFile creates a new DiskDBFile wrapper around an already open OS file. An empty file is formatted
// with a fresh allocation map; otherwise the existing map is loaded from page 0.
func NewDiskDBFile(file *os.File, id common.FileID) (*DiskDBFile, error) {
	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size()%int64(common.PageSize) != 0 {
		return nil, fmt.Errorf("file %s: size %d is not a multiple of the page size", file.Name(), stat.Size())
	}

	mapPage := NewPage(allocationMapPageNum)
	dbFile := &DiskDBFile{
		id:        id,
		file:      file,
		physPages: int(stat.Size() / int64(common.PageSize)),
	}

	if dbFile.physPages == 0 {
		InitializeAllocationMapPage(mapPage)
		if _, err := file.WriteAt(mapPage, 0); err != nil {
			return nil, fmt.Errorf("file %s: failed to write allocation map: %w", file.Name(), err)
		}
		dbFile.physPages = 1
	} else {
		if _, err := file.ReadAt(mapPage, 0); err != nil {
			return nil, fmt.Errorf("file %s: failed to read allocation map: %w", file.Name(), err)
		}
		header := AsBitmap(mapPage.Data(), AllocationMapPageSlots)
		if mapPage.PageNum() != allocationMapPageNum || !header.LoadBit(0) {
			return nil, fmt.Errorf("file %s: page 0 is not an allocation map", file.Name())
		}
	}

	dbFile.allocMap = AsAllocationMapPage(mapPage)
	for pn := 1; pn < dbFile.physPages; pn++ {
		if dbFile.allocMap.IsAllocated(common.PageNum(pn)) {
			dbFile.numAllocated++
		}
	}
	return dbFile, nil
}

func pageOffset(pageNum common.PageNum) int64 {
	return int64(pageNum) * int64(common.PageSize)
}

// ID returns the identity assigned when the file was opened.
func (f *DiskDBFile) ID() common.FileID {
	return f.id
}

// AllocatePage reuses the lowest free page number, growing the file when every existing page is in use.
func (f *DiskDBFile) AllocatePage() (Page, error) {
	f.allocMu.Lock()
	defer f.allocMu.Unlock()

	pageNum := f.allocMap.FindFirstFreePage()
	if pageNum == common.InvalidPageNum {
		return nil, common.NewBufError(common.FileFullError, "file %d cannot track more than %d pages", f.id, AllocationMapPageSlots)
	}

	if int(pageNum) >= f.physPages {
		newSizeBytes := pageOffset(pageNum + 1)
		if err := f.file.Truncate(newSizeBytes); err != nil {
			return nil, fmt.Errorf("failed to allocate page %d: %w", pageNum, err)
		}
		f.physPages = int(pageNum) + 1
	}

	// A reused page may still hold the contents it had before deletion
	newPage := NewPage(pageNum)
	if _, err := f.file.WriteAt(newPage, pageOffset(pageNum)); err != nil {
		return nil, fmt.Errorf("failed to initialize page %d: %w", pageNum, err)
	}

	f.allocMap.MarkAllocated(pageNum, true)
	if err := f.writeAllocationMap(); err != nil {
		f.allocMap.MarkAllocated(pageNum, false)
		return nil, err
	}
	f.numAllocated++
	return newPage, nil
}

// ReadPage reads the content of the page identified by `pageNum` into `dst`.
func (f *DiskDBFile) ReadPage(pageNum common.PageNum, dst Page) error {
	common.Assert(len(dst) == common.PageSize, "buffer size must match PageSize")
	if !f.isAllocated(pageNum) {
		return pageNotAllocated(f.id, pageNum)
	}
	_, err := f.file.ReadAt(dst, pageOffset(pageNum))
	return err
}

// WritePage writes the content of `p` to the page number recorded in its header.
func (f *DiskDBFile) WritePage(p Page) error {
	common.Assert(len(p) == common.PageSize, "buffer size must match PageSize")
	pageNum := p.PageNum()
	if !f.isAllocated(pageNum) {
		return pageNotAllocated(f.id, pageNum)
	}
	_, err := f.file.WriteAt(p, pageOffset(pageNum))
	return err
}

// DeletePage marks the page free in the allocation map. The file never shrinks.
func (f *DiskDBFile) DeletePage(pageNum common.PageNum) error {
	f.allocMu.Lock()
	defer f.allocMu.Unlock()

	if !f.allocMap.IsAllocated(pageNum) {
		return pageNotAllocated(f.id, pageNum)
	}
	f.allocMap.MarkAllocated(pageNum, false)
	if err := f.writeAllocationMap(); err != nil {
		f.allocMap.MarkAllocated(pageNum, true)
		return err
	}
	f.numAllocated--
	return nil
}

func (f *DiskDBFile) isAllocated(pageNum common.PageNum) bool {
	f.allocMu.RLock()
	defer f.allocMu.RUnlock()
	return f.allocMap.IsAllocated(pageNum)
}

// writeAllocationMap persists the allocation map. Caller must hold allocMu exclusively.
func (f *DiskDBFile) writeAllocationMap() error {
	if _, err := f.file.WriteAt(f.allocMap.Page, pageOffset(allocationMapPageNum)); err != nil {
		return fmt.Errorf("failed to write allocation map of file %d: %w", f.id, err)
	}
	return nil
}

// Sync flushes writes to stable storage.
func (f *DiskDBFile) Sync() error {
	return f.file.Sync()
}

// Close closes the underlying OS file.
func (f *DiskDBFile) Close() error {
	return f.file.Close()
}

// NumPages returns the number of allocated data pages, excluding the allocation map.
func (f *DiskDBFile) NumPages() (int, error) {
	f.allocMu.RLock()
	defer f.allocMu.RUnlock()
	return f.numAllocated, nil
}

// DiskDBFileManager manages a collection of DiskDBFiles rooted at a specific directory.
type DiskDBFileManager struct {
	rootPath  string
	fileCache *xsync.MapOf[common.FileID, DBFile]
	logger    *zap.Logger
}

// NewDiskStorageManager initializes a manager rooted at `rootPath`. A nil logger discards log output.
func NewDiskStorageManager(rootPath string, logger *zap.Logger) *DiskDBFileManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskDBFileManager{
		rootPath:  rootPath,
		fileCache: xsync.NewMapOf[common.FileID, DBFile](),
		logger:    logger,
	}
}

func (dsm *DiskDBFileManager) path(fid common.FileID) string {
	return filepath.Join(dsm.rootPath, fmt.Sprintf("file_%d.dat", fid))
}

// GetDBFile retrieves or creates a DBFile for the given FileID.
//
// It maintains a cache of open files to ensure only one instance of DiskDBFile
// exists per physical file.
func (dsm *DiskDBFileManager) GetDBFile(fid common.FileID) (DBFile, error) {
	if fid == common.InvalidFileID {
		return nil, fmt.Errorf("file id %d is reserved", fid)
	}
	if file, ok := dsm.fileCache.Load(fid); ok {
		return file, nil
	}

	f, err := os.OpenFile(dsm.path(fid), os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	newDBFile, err := NewDiskDBFile(f, fid)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	actualFile, loaded := dsm.fileCache.LoadOrStore(fid, newDBFile)
	if loaded {
		// Another thread opened the file and inserted it first. Use theirs.
		_ = newDBFile.Close()
		return actualFile, nil
	}

	return newDBFile, nil
}

// DeleteDBFile permanently deletes the file backing the given FileID.
//
// Warning: The caller must ensure that no other threads are currently using/getting the file.
func (dsm *DiskDBFileManager) DeleteDBFile(fid common.FileID) error {
	file, loaded := dsm.fileCache.LoadAndDelete(fid)
	if loaded {
		if err := file.Close(); err != nil {
			// We continue even if close fails, to ensure physical deletion
			dsm.logger.Warn("failed to close file before deletion",
				zap.Uint32("file", uint32(fid)), zap.Error(err))
		}
	}
	return os.Remove(dsm.path(fid))
}

// Close syncs and closes every cached file.
func (dsm *DiskDBFileManager) Close() error {
	var err error
	dsm.fileCache.Range(func(fid common.FileID, file DBFile) bool {
		err = multierr.Append(err, file.Sync())
		err = multierr.Append(err, file.Close())
		dsm.fileCache.Delete(fid)
		return true
	})
	return err
}
