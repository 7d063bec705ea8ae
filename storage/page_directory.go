package storage

import (
	"github.com/jamekuma/Database-lab2/common"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spaolacci/murmur3"
)

// PageDirectory maps resident pages to the frames holding them. It is owned by a BufferManager and only
// mutated through the manager's operations.
type PageDirectory interface {
	// Lookup returns the frame holding pid. A miss is reported through the boolean, not as an error.
	Lookup(pid common.PageID) (common.FrameID, bool)
	// Insert registers pid in frame. Returns a HashAlreadyPresentError if pid is already present.
	Insert(pid common.PageID, frame common.FrameID) error
	// Remove drops pid. Returns a HashNotFoundError if pid is not present.
	Remove(pid common.PageID) error
	// Len returns the number of entries.
	Len() int
}

// DirectoryKind selects the PageDirectory implementation used by a BufferManager.
type DirectoryKind int

const (
	// HashDirectory is a fixed-size chained hash table, sized from the number of frames.
	HashDirectory DirectoryKind = iota
	// SyncDirectory is backed by a concurrent map.
	SyncDirectory
)

func (k DirectoryKind) String() string {
	switch k {
	case HashDirectory:
		return "hash"
	case SyncDirectory:
		return "sync"
	}
	return "unknown"
}

func newPageDirectory(kind DirectoryKind, numFrames int) PageDirectory {
	switch kind {
	case SyncDirectory:
		return newSyncDirectory()
	default:
		return newHashDirectory(numFrames)
	}
}

func alreadyPresent(pid common.PageID) error {
	return common.NewBufError(common.HashAlreadyPresentError, "%s is already in the page directory", pid.String())
}

func notPresent(pid common.PageID) error {
	return common.NewBufError(common.HashNotFoundError, "%s is not in the page directory", pid.String())
}

type hashBucket struct {
	pid   common.PageID
	frame common.FrameID
	next  *hashBucket
}

// hashDirectory is a chained hash table with a bucket count fixed at construction. Keys are hashed with
// murmur3 over their serialized form.
type hashDirectory struct {
	buckets []*hashBucket
	size    int
}

func newHashDirectory(numFrames int) *hashDirectory {
	// about 20% more buckets than frames keeps chains short
	numBuckets := ((int(float64(numFrames)*1.2) * 2) / 2) + 1
	return &hashDirectory{
		buckets: make([]*hashBucket, numBuckets),
	}
}

func (h *hashDirectory) hash(pid common.PageID) int {
	var key [common.PageIDSize]byte
	pid.WriteTo(key[:])
	return int(murmur3.Sum64(key[:]) % uint64(len(h.buckets)))
}

func (h *hashDirectory) Lookup(pid common.PageID) (common.FrameID, bool) {
	for b := h.buckets[h.hash(pid)]; b != nil; b = b.next {
		if b.pid == pid {
			return b.frame, true
		}
	}
	return common.InvalidFrameID, false
}

func (h *hashDirectory) Insert(pid common.PageID, frame common.FrameID) error {
	idx := h.hash(pid)
	for b := h.buckets[idx]; b != nil; b = b.next {
		if b.pid == pid {
			return alreadyPresent(pid)
		}
	}
	h.buckets[idx] = &hashBucket{pid: pid, frame: frame, next: h.buckets[idx]}
	h.size++
	return nil
}

func (h *hashDirectory) Remove(pid common.PageID) error {
	idx := h.hash(pid)
	for link := &h.buckets[idx]; *link != nil; link = &(*link).next {
		if (*link).pid == pid {
			*link = (*link).next
			h.size--
			return nil
		}
	}
	return notPresent(pid)
}

func (h *hashDirectory) Len() int {
	return h.size
}

// syncDirectory keeps entries in a concurrent map, so lookups stay valid once frames get their own latches.
type syncDirectory struct {
	table *xsync.MapOf[common.PageID, common.FrameID]
}

func newSyncDirectory() *syncDirectory {
	return &syncDirectory{
		table: xsync.NewMapOf[common.PageID, common.FrameID](),
	}
}

func (s *syncDirectory) Lookup(pid common.PageID) (common.FrameID, bool) {
	frame, ok := s.table.Load(pid)
	if !ok {
		return common.InvalidFrameID, false
	}
	return frame, true
}

func (s *syncDirectory) Insert(pid common.PageID, frame common.FrameID) error {
	if _, loaded := s.table.LoadOrStore(pid, frame); loaded {
		return alreadyPresent(pid)
	}
	return nil
}

func (s *syncDirectory) Remove(pid common.PageID) error {
	if _, loaded := s.table.LoadAndDelete(pid); !loaded {
		return notPresent(pid)
	}
	return nil
}

func (s *syncDirectory) Len() int {
	return s.table.Size()
}
