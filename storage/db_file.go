package storage

import (
	"github.com/jamekuma/Database-lab2/common"
)

// DBFile abstracts a physical page file on storage. It handles page-level reads and writes, as well as space
// allocation and release. Page numbers start at 1.
//
// Implementation should be safe for concurrent use. Specifically, multiple threads
// should be able to ReadPage and WritePage to different pages simultaneously.
// AllocatePage and DeletePage should be atomic with respect to each other.
type DBFile interface {
	// ID returns the identity of the file. The buffer manager uses it to tell pages of different files apart.
	ID() common.FileID
	// AllocatePage grows the file by one page and returns the new page's initial contents: zeroed payload and
	// the assigned page number in its header.
	AllocatePage() (Page, error)
	// ReadPage reads the contents of the page identified by `pageNum` into `dst`. The slice `dst` must be
	// exactly common.PageSize bytes. Returns an InvalidPageError if the page is not allocated.
	ReadPage(pageNum common.PageNum, dst Page) error
	// WritePage persists the full contents of `p` at the page number stored in its header. The page must
	// already be allocated; this method cannot be used to extend the file.
	WritePage(p Page) error
	// DeletePage releases the page's allocation. Deleting a page that is not allocated returns an
	// InvalidPageError.
	DeletePage(pageNum common.PageNum) error
	// Sync forces any buffered writes to stable storage, ensuring durability.
	Sync() error
	// Close closes the underlying file handle and releases resources.
	Close() error
	// NumPages returns the number of pages currently allocated in the file.
	NumPages() (int, error)
}

// DBFileManager manages the lifecycle and caching of DBFile instances.
// It acts as the registry for all open files in the system.
type DBFileManager interface {
	// GetDBFile retrieves the DBFile handle for the given FileID. If the file is already open, the
	// existing handle is returned. If the file does not exist, it is created.
	GetDBFile(fid common.FileID) (DBFile, error)
	// DeleteDBFile permanently removes the file associated with the FileID.
	// The caller is responsible for ensuring that no pages of the file are resident in a buffer manager.
	DeleteDBFile(fid common.FileID) error
	// Close closes every open file.
	Close() error
}

func pageNotAllocated(fid common.FileID, pageNum common.PageNum) error {
	return common.NewBufError(common.InvalidPageError, "page %d of file %d is not allocated", pageNum, fid)
}
