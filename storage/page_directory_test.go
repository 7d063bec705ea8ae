package storage

import (
	"testing"

	"github.com/jamekuma/Database-lab2/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var directoryKinds = []DirectoryKind{HashDirectory, SyncDirectory}

func TestPageDirectory_InsertLookupRemove(t *testing.T) {
	for _, kind := range directoryKinds {
		t.Run(kind.String(), func(t *testing.T) {
			dir := newPageDirectory(kind, 4)
			p1 := common.PageID{File: 1, PageNum: 1}
			p2 := common.PageID{File: 2, PageNum: 1}

			_, ok := dir.Lookup(p1)
			assert.False(t, ok, "a miss is not an error")
			assert.Equal(t, 0, dir.Len())

			require.NoError(t, dir.Insert(p1, 3))
			require.NoError(t, dir.Insert(p2, 0))
			err := dir.Insert(p1, 2)
			assert.True(t, common.IsErrorCode(err, common.HashAlreadyPresentError), "duplicate insert: %v", err)

			frame, ok := dir.Lookup(p1)
			require.True(t, ok)
			assert.Equal(t, common.FrameID(3), frame, "a rejected insert leaves the entry alone")
			frame, ok = dir.Lookup(p2)
			require.True(t, ok)
			assert.Equal(t, common.FrameID(0), frame)
			assert.Equal(t, 2, dir.Len())

			require.NoError(t, dir.Remove(p1))
			_, ok = dir.Lookup(p1)
			assert.False(t, ok)
			err = dir.Remove(p1)
			assert.True(t, common.IsErrorCode(err, common.HashNotFoundError), "double remove: %v", err)
			assert.Equal(t, 1, dir.Len())

			require.NoError(t, dir.Insert(p1, 1), "a removed key can be inserted again")
			frame, _ = dir.Lookup(p1)
			assert.Equal(t, common.FrameID(1), frame)
		})
	}
}

func TestPageDirectory_ManyKeysShareBuckets(t *testing.T) {
	for _, kind := range directoryKinds {
		t.Run(kind.String(), func(t *testing.T) {
			// one frame worth of buckets forces long chains in the hash directory
			dir := newPageDirectory(kind, 1)
			var pids []common.PageID
			for f := common.FileID(1); f <= 4; f++ {
				for pn := common.PageNum(1); pn <= 50; pn++ {
					pids = append(pids, common.PageID{File: f, PageNum: pn})
				}
			}
			for i, pid := range pids {
				require.NoError(t, dir.Insert(pid, common.FrameID(i)))
			}
			assert.Equal(t, len(pids), dir.Len())

			// drop every other key, including chain heads and tails
			for i := 0; i < len(pids); i += 2 {
				require.NoError(t, dir.Remove(pids[i]))
			}
			assert.Equal(t, len(pids)/2, dir.Len())
			for i, pid := range pids {
				frame, ok := dir.Lookup(pid)
				if i%2 == 0 {
					assert.False(t, ok, "%s should be gone", pid.String())
					continue
				}
				require.True(t, ok, "%s should be present", pid.String())
				assert.Equal(t, common.FrameID(i), frame)
			}
		})
	}
}

func TestPageDirectory_SamePageNumberDifferentFiles(t *testing.T) {
	for _, kind := range directoryKinds {
		t.Run(kind.String(), func(t *testing.T) {
			dir := newPageDirectory(kind, 8)
			require.NoError(t, dir.Insert(common.PageID{File: 1, PageNum: 7}, 1))
			require.NoError(t, dir.Insert(common.PageID{File: 2, PageNum: 7}, 2))

			frame, ok := dir.Lookup(common.PageID{File: 2, PageNum: 7})
			require.True(t, ok)
			assert.Equal(t, common.FrameID(2), frame)
			_, ok = dir.Lookup(common.PageID{File: 3, PageNum: 7})
			assert.False(t, ok)
		})
	}
}

func TestHashDirectory_BucketCount(t *testing.T) {
	assert.Len(t, newHashDirectory(1).buckets, 2)
	assert.Len(t, newHashDirectory(10).buckets, 13)
}
