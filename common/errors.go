package common

import (
	"errors"
	"fmt"
)

type BufErrorCode int

const (
	// BufferExceededError indicates that every frame in the pool is pinned and no victim could be found.
	BufferExceededError BufErrorCode = iota
	// HashNotFoundError indicates a page directory removal for a key that is not present.
	HashNotFoundError
	// HashAlreadyPresentError indicates a page directory insertion for a key that is already present.
	HashAlreadyPresentError
	// PageNotPinnedError is returned when unpinning a resident page whose pin count is already zero.
	PageNotPinnedError
	// PagePinnedError is returned when a file is flushed while one of its pages is still pinned.
	PagePinnedError
	// BadBufferError signals broken bookkeeping inside the buffer manager, e.g. a frame owned by a file
	// that is not marked valid. It is never caused by caller misuse.
	BadBufferError
	// InvalidPageError indicates a read, write or delete of a page that is not allocated in its file.
	InvalidPageError
	// FileFullError indicates that a file cannot track any more pages.
	FileFullError
	// InvalidConfigError indicates options that cannot be used to build a buffer manager.
	InvalidConfigError
)

func (ec BufErrorCode) String() string {
	switch ec {
	case BufferExceededError:
		return "BufferExceededError"
	case HashNotFoundError:
		return "HashNotFoundError"
	case HashAlreadyPresentError:
		return "HashAlreadyPresentError"
	case PageNotPinnedError:
		return "PageNotPinnedError"
	case PagePinnedError:
		return "PagePinnedError"
	case BadBufferError:
		return "BadBufferError"
	case InvalidPageError:
		return "InvalidPageError"
	case FileFullError:
		return "FileFullError"
	case InvalidConfigError:
		return "InvalidConfigError"
	}
	return "unknown"
}

// BufError is the custom error type for the storage layer. It wraps a specific BufErrorCode with a detailed
// message so callers can tell pool exhaustion apart from caller misuse and from internal inconsistencies.
type BufError struct {
	Code      BufErrorCode
	ErrString string
}

func (e BufError) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// NewBufError builds a BufError with a formatted message.
func NewBufError(code BufErrorCode, format string, args ...any) BufError {
	return BufError{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// IsErrorCode reports whether err, or any error it wraps, is a BufError carrying code.
func IsErrorCode(err error, code BufErrorCode) bool {
	var bufErr BufError
	if errors.As(err, &bufErr) {
		return bufErr.Code == code
	}
	return false
}
