package storage

import (
	"math/rand"
	"testing"

	"github.com/jamekuma/Database-lab2/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectedFirstZero(shadow []bool, start int) int {
	for i := start; i < len(shadow); i++ {
		if !shadow[i] {
			return i
		}
	}
	for i := 0; i < start; i++ {
		if !shadow[i] {
			return i
		}
	}
	return -1
}

func checkBitmapAgainst(t *testing.T, bm Bitmap, shadow []bool) {
	for i, want := range shadow {
		assert.Equal(t, want, bm.LoadBit(i), "bit %d", i)
	}
}

func TestBitmap_SetAndLoadAcrossByteBoundaries(t *testing.T) {
	bm := AsBitmap(make([]byte, 4), 27)
	shadow := make([]bool, 27)
	assert.Equal(t, 27, bm.Len())

	for _, idx := range []int{0, 7, 8, 15, 16, 26} {
		assert.False(t, bm.SetBit(idx, true), "bit %d was already set", idx)
		shadow[idx] = true
	}
	checkBitmapAgainst(t, bm, shadow)

	assert.True(t, bm.SetBit(8, false))
	shadow[8] = false
	assert.False(t, bm.SetBit(8, false), "clearing twice reports the cleared value")
	checkBitmapAgainst(t, bm, shadow)
}

func TestBitmap_DoesNotTouchBytesPastLastBit(t *testing.T) {
	buf := []byte{0, 0, 0xAA, 0xAA}
	bm := AsBitmap(buf, 12)
	for i := 0; i < 12; i++ {
		bm.SetBit(i, true)
	}
	assert.Equal(t, []byte{0xFF, 0x0F, 0xAA, 0xAA}, buf)
	assert.Equal(t, -1, bm.FindFirstZero(0), "bits beyond Len must not be reported free")
}

func TestBitmap_FindFirstZeroWraps(t *testing.T) {
	bm := AsBitmap(make([]byte, 13), 100)
	assert.Equal(t, 0, bm.FindFirstZero(0))
	assert.Equal(t, 42, bm.FindFirstZero(42))

	for i := 0; i < 100; i++ {
		bm.SetBit(i, true)
	}
	assert.Equal(t, -1, bm.FindFirstZero(0))
	assert.Equal(t, -1, bm.FindFirstZero(99))

	bm.SetBit(3, false)
	assert.Equal(t, 3, bm.FindFirstZero(0))
	assert.Equal(t, 3, bm.FindFirstZero(4), "search wraps to the start")

	bm.SetBit(97, false)
	assert.Equal(t, 97, bm.FindFirstZero(4))
	assert.Equal(t, 3, bm.FindFirstZero(98))
}

func TestBitmap_RandomizedAgainstShadow(t *testing.T) {
	for _, numBits := range []int{9, 43, 500} {
		r := rand.New(rand.NewSource(int64(numBits)))
		buf := make([]byte, (numBits+7)/8)
		r.Read(buf)
		bm := AsBitmap(buf, numBits)

		shadow := make([]bool, numBits)
		for i := range shadow {
			shadow[i] = bm.LoadBit(i)
		}

		for iter := 0; iter < 20000; iter++ {
			switch r.Intn(3) {
			case 0:
				idx := r.Intn(numBits)
				on := r.Intn(2) == 0
				require.Equal(t, shadow[idx], bm.SetBit(idx, on), "SetBit at iter %d", iter)
				shadow[idx] = on
			case 1:
				idx := r.Intn(numBits)
				require.Equal(t, shadow[idx], bm.LoadBit(idx), "LoadBit at iter %d", iter)
			case 2:
				start := r.Intn(numBits)
				want := expectedFirstZero(shadow, start)
				require.Equal(t, want, bm.FindFirstZero(start), "FindFirstZero(%d) at iter %d", start, iter)
				if want != -1 {
					bm.SetBit(want, true)
					shadow[want] = true
				}
			}
		}
		checkBitmapAgainst(t, bm, shadow)
	}
}

func TestAllocationMapPage_Lifecycle(t *testing.T) {
	p := NewPage(common.PageNum(17))
	InitializeAllocationMapPage(p)
	amp := AsAllocationMapPage(p)

	assert.Equal(t, allocationMapPageNum, p.PageNum())
	assert.False(t, amp.IsAllocated(allocationMapPageNum), "the map itself is never a data page")
	assert.Equal(t, common.PageNum(1), amp.FindFirstFreePage())

	assert.True(t, amp.MarkAllocated(1, true))
	assert.False(t, amp.MarkAllocated(1, true))
	assert.True(t, amp.MarkAllocated(2, true))
	assert.Equal(t, common.PageNum(3), amp.FindFirstFreePage())

	assert.True(t, amp.MarkAllocated(1, false))
	assert.Equal(t, common.PageNum(1), amp.FindFirstFreePage(), "freed numbers are reused lowest first")

	assert.False(t, amp.IsAllocated(-4))
	assert.False(t, amp.IsAllocated(common.PageNum(AllocationMapPageSlots)))
}

func TestAllocationMapPage_Full(t *testing.T) {
	p := NewPage(0)
	InitializeAllocationMapPage(p)
	amp := AsAllocationMapPage(p)
	for pn := 1; pn < AllocationMapPageSlots; pn++ {
		amp.MarkAllocated(common.PageNum(pn), true)
	}
	assert.Equal(t, common.InvalidPageNum, amp.FindFirstFreePage())
}
