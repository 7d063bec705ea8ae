package lab2

import (
	"os"

	"github.com/jamekuma/Database-lab2/common"
	"github.com/jamekuma/Database-lab2/storage"
	"go.uber.org/multierr"
)

// Config describes where pages live and how the buffer manager in front of them is built.
type Config struct {
	// StorageDir holds one file per FileID. Ignored when InMemory is set.
	StorageDir string
	// InMemory keeps every file in memory; nothing is persisted.
	InMemory bool
	Buffer   storage.Options
}

// DefaultConfig returns an on-disk configuration rooted at dir with default buffer options.
func DefaultConfig(dir string) Config {
	return Config{
		StorageDir: dir,
		Buffer:     storage.DefaultOptions(),
	}
}

// DB is the top-level container wiring a file registry to the buffer manager that caches its pages.
type DB struct {
	Files         storage.DBFileManager
	BufferManager *storage.BufferManager
}

// Open builds the file registry and the buffer manager described by cfg.
func Open(cfg Config) (*DB, error) {
	bm, err := storage.NewBufferManager(cfg.Buffer)
	if err != nil {
		return nil, err
	}

	var files storage.DBFileManager
	if cfg.InMemory {
		files = storage.NewMemStorageManager()
	} else {
		if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
			return nil, err
		}
		files = storage.NewDiskStorageManager(cfg.StorageDir, cfg.Buffer.Logger)
	}

	return &DB{
		Files:         files,
		BufferManager: bm,
	}, nil
}

// File opens (or creates) the file with the given id.
func (db *DB) File(fid common.FileID) (storage.DBFile, error) {
	return db.Files.GetDBFile(fid)
}

// Close writes every dirty page back and then closes all files.
func (db *DB) Close() error {
	err := db.BufferManager.Close()
	return multierr.Append(err, db.Files.Close())
}
