package storage

import (
	"github.com/jamekuma/Database-lab2/common"
	"go.uber.org/zap"
)

// Options configures a BufferManager.
type Options struct {
	// NumFrames is the fixed capacity of the pool, in pages.
	NumFrames int
	// Directory selects the page directory implementation.
	Directory DirectoryKind
	// Logger receives eviction and flush events. Nil discards them.
	Logger *zap.Logger
}

// DefaultOptions returns options for a 100-frame pool (400KB) with the hash directory and no logging.
func DefaultOptions() Options {
	return Options{
		NumFrames: 100,
		Directory: HashDirectory,
		Logger:    zap.NewNop(),
	}
}

// Validate reports options that cannot build a BufferManager.
func (o Options) Validate() error {
	if o.NumFrames <= 0 {
		return common.NewBufError(common.InvalidConfigError, "number of frames must be positive, got %d", o.NumFrames)
	}
	if o.Directory != HashDirectory && o.Directory != SyncDirectory {
		return common.NewBufError(common.InvalidConfigError, "unknown directory kind %d", int(o.Directory))
	}
	return nil
}
