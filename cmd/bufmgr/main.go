package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/devlights/gomy/output"
	lab2 "github.com/jamekuma/Database-lab2"
	"github.com/jamekuma/Database-lab2/common"
	"github.com/jamekuma/Database-lab2/storage"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "./bufmgr_data", "Storage directory for page files")
	inMemory := flag.Bool("mem", false, "Keep page files in memory instead of -dir")
	frames := flag.Int("frames", 16, "Number of frames in the buffer pool")
	numFiles := flag.Int("files", 2, "Number of page files to exercise")
	numPages := flag.Int("pages", 64, "Number of pages to allocate per file")
	directory := flag.String("directory", "hash", "Page directory implementation: 'hash' or 'sync'")
	verbose := flag.Bool("v", false, "Log eviction and flush events")
	dump := flag.Bool("dump", false, "Print every frame before shutdown")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}
		defer logger.Sync()
	}

	cfg := lab2.DefaultConfig(*dir)
	cfg.InMemory = *inMemory
	cfg.Buffer.NumFrames = *frames
	cfg.Buffer.Logger = logger
	switch *directory {
	case "hash":
		cfg.Buffer.Directory = storage.HashDirectory
	case "sync":
		cfg.Buffer.Directory = storage.SyncDirectory
	default:
		log.Fatalf("unknown directory %q", *directory)
	}

	db, err := lab2.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open: %v", err)
	}

	if err := run(db, *numFiles, *numPages); err != nil {
		_ = db.Close()
		log.Fatalf("workload failed: %v", err)
	}

	if *dump {
		if err := db.BufferManager.PrintSelf(os.Stdout); err != nil {
			log.Fatalf("failed to print pool: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		log.Fatalf("failed to close: %v", err)
	}
}

func marker(fid common.FileID, pageNum common.PageNum) []byte {
	return []byte(fmt.Sprintf("file-%d-page-%d", fid, pageNum))
}

// run allocates pages in every file, reads them back through the pool, disposes some of them and flushes
// every file.
func run(db *lab2.DB, numFiles, numPages int) error {
	bm := db.BufferManager
	files := make([]storage.DBFile, 0, numFiles)
	pageNums := make(map[common.FileID][]common.PageNum, numFiles)

	for i := 1; i <= numFiles; i++ {
		file, err := db.File(common.FileID(i))
		if err != nil {
			return err
		}
		files = append(files, file)
		for j := 0; j < numPages; j++ {
			pageNum, h, err := bm.AllocatePage(file)
			if err != nil {
				return err
			}
			copy(h.Data(), marker(file.ID(), pageNum))
			if err := bm.UnpinPage(file, pageNum, true); err != nil {
				return err
			}
			pageNums[file.ID()] = append(pageNums[file.ID()], pageNum)
		}
	}

	mismatches := 0
	for _, file := range files {
		for _, pageNum := range pageNums[file.ID()] {
			h, err := bm.ReadPage(file, pageNum)
			if err != nil {
				return err
			}
			if !bytes.HasPrefix(h.Data(), marker(file.ID(), pageNum)) {
				mismatches++
			}
			if err := bm.UnpinPage(file, pageNum, false); err != nil {
				return err
			}
		}
	}

	disposed := 0
	for _, file := range files {
		for i, pageNum := range pageNums[file.ID()] {
			if i%5 != 4 {
				continue
			}
			if err := bm.DisposePage(file, pageNum); err != nil {
				return err
			}
			disposed++
		}
	}

	for _, file := range files {
		if err := bm.FlushFile(file); err != nil {
			return err
		}
	}

	poolDump := bm.Dump()
	output.Stdoutl("[files]      ", numFiles)
	output.Stdoutl("[allocated]  ", numFiles*numPages)
	output.Stdoutl("[disposed]   ", disposed)
	output.Stdoutl("[mismatches] ", mismatches)
	output.Stdoutl("[valid]      ", poolDump.ValidFrames)
	if mismatches > 0 {
		return fmt.Errorf("%d pages did not read back what was written", mismatches)
	}
	return nil
}
