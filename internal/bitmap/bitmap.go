// Package bitmap provides a compact set of non-negative row indices, used to
// mark the rows of a chunk rejected by validation.
package bitmap

import "math/bits"

// Bitmap is a bitset backed by 64-bit words. The zero value is an empty set
// that ignores Add.
type Bitmap struct {
	data  []uint64
	count int
}

// New returns a bitmap able to hold the indices [0, n). n <= 0 yields an
// empty set.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (n+63)/64)}
}

// Add sets bit i. Negative or out-of-range indices are ignored.
func (b *Bitmap) Add(i int) {
	if i < 0 || i/64 >= len(b.data) {
		return
	}
	mask := uint64(1) << uint(i%64)
	if b.data[i/64]&mask == 0 {
		b.data[i/64] |= mask
		b.count++
	}
}

// Has reports whether bit i is set.
func (b *Bitmap) Has(i int) bool {
	if i < 0 || i/64 >= len(b.data) {
		return false
	}
	return b.data[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// Count returns the number of distinct indices set.
func (b *Bitmap) Count() int { return b.count }

// Indices returns the set indices in ascending order.
func (b *Bitmap) Indices() []int {
	out := make([]int, 0, b.count)
	for w, word := range b.data {
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			out = append(out, w*64+tz)
			word &= word - 1
		}
	}
	return out
}
