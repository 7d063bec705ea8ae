package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorCode(t *testing.T) {
	err := NewBufError(PageNotPinnedError, "page %d is not pinned", 4)
	assert.Equal(t, "err: PageNotPinnedError; msg: page 4 is not pinned", err.Error())
	assert.True(t, IsErrorCode(err, PageNotPinnedError))
	assert.False(t, IsErrorCode(err, PagePinnedError))

	wrapped := fmt.Errorf("flush failed: %w", NewBufError(BufferExceededError, "all frames pinned"))
	assert.True(t, IsErrorCode(wrapped, BufferExceededError), "codes are found through wrapping")

	assert.False(t, IsErrorCode(errors.New("plain"), BufferExceededError))
	assert.False(t, IsErrorCode(nil, BufferExceededError))
}

func TestBufErrorCodeNames(t *testing.T) {
	codes := []BufErrorCode{
		BufferExceededError, HashNotFoundError, HashAlreadyPresentError, PageNotPinnedError,
		PagePinnedError, BadBufferError, InvalidPageError, FileFullError, InvalidConfigError,
	}
	seen := make(map[string]bool)
	for _, code := range codes {
		name := code.String()
		assert.NotEqual(t, "unknown", name, "code %d has no name", int(code))
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Equal(t, "unknown", BufErrorCode(-1).String())
}

func TestPageIDWriteTo(t *testing.T) {
	var buf [PageIDSize]byte
	PageID{File: 0x01020304, PageNum: 5}.WriteTo(buf[:])
	assert.Equal(t, [PageIDSize]byte{4, 3, 2, 1, 5, 0, 0, 0}, buf)
	assert.Equal(t, "Page(7, 9)", PageID{File: 7, PageNum: 9}.String())
	assert.Panics(t, func() { PageID{}.WriteTo(make([]byte, 4)) })
}

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "never") })
	assert.PanicsWithValue(t, "frame 3 is broken", func() { Assert(false, "frame %d is broken", 3) })
}
