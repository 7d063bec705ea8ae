package storage

import (
	"github.com/jamekuma/Database-lab2/common"
)

// Bitmap provides a convenient interface for manipulating bits in a byte slice.
// It does not own the underlying bytes; instead, it provides a structured view over
// an existing buffer (e.g., the payload of a page).
type Bitmap struct {
	bytes   []byte
	numBits int
}

// AsBitmap creates a Bitmap view over the provided byte slice. data must hold at least numBits bits.
func AsBitmap(data []byte, numBits int) Bitmap {
	common.Assert(len(data)*8 >= numBits, "bitmap buffer too small")
	return Bitmap{
		bytes:   data[:(numBits+7)/8],
		numBits: numBits,
	}
}

// Len returns the number of bits tracked by the bitmap.
func (b *Bitmap) Len() int {
	return b.numBits
}

// SetBit sets the bit at index i to the given value.
// Returns the previous value of the bit.
func (b *Bitmap) SetBit(i int, on bool) (originalValue bool) {
	common.Assert(i >= 0 && i < b.numBits, "indexing out of bounds")
	mask := byte(1) << uint(i%8)
	ptr := &b.bytes[i/8]
	originalValue = *ptr&mask != 0
	if on {
		*ptr |= mask
	} else {
		*ptr &^= mask
	}
	return originalValue
}

// LoadBit returns the value of the bit at index i.
func (b *Bitmap) LoadBit(i int) bool {
	common.Assert(i >= 0 && i < b.numBits, "indexing out of bounds")
	return b.bytes[i/8]&(1<<uint(i%8)) != 0
}

// FindFirstZero searches for the first bit set to 0 (false) in the bitmap.
// It begins the search at startHint and scans to the end of the bitmap.
// If no zero bit is found, it wraps around and scans from the beginning (index 0)
// up to startHint.
//
// Returns the index of the first zero bit found, or -1 if the bitmap is entirely full.
func (b *Bitmap) FindFirstZero(startHint int) int {
	if r := b.findFirstZeroInRange(startHint, b.numBits); r != -1 {
		return r
	}
	return b.findFirstZeroInRange(0, startHint)
}

func (b *Bitmap) findFirstZeroInRange(start, end int) int {
	common.Assert(start >= 0 && start <= end && end <= b.numBits, "invalid Bitmap range")
	for i := start; i < end; {
		// Skip full bytes when aligned
		if i%8 == 0 && i+8 <= end && b.bytes[i/8] == 0xFF {
			i += 8
			continue
		}
		if !b.LoadBit(i) {
			return i
		}
		i++
	}
	return -1
}
