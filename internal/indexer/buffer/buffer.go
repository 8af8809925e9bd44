// Package buffer provides the growable byte buffer used by the posting codec,
// together with cursor based writers/readers and the varint encodings used
// for document deltas, frequencies and field masks.
package buffer

import "fmt"

const maxGrowStep = 1 << 20

// Buffer is an owned byte region. Data is always fully allocated up to its
// capacity; Offset is the logical length written so far.
type Buffer struct {
	Data   []byte
	Offset int
}

// New allocates a buffer with the given initial capacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{Data: make([]byte, capacity)}
}

// Wrap creates a buffer over existing bytes, treating all of them as written.
func Wrap(p []byte) *Buffer {
	return &Buffer{Data: p, Offset: len(p)}
}

func (b *Buffer) Len() int { return b.Offset }

func (b *Buffer) Cap() int { return len(b.Data) }

// Bytes returns the written region. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.Data[:b.Offset] }

// Reserve makes room for n more bytes past Offset, reporting whether the
// buffer had to grow.
func (b *Buffer) Reserve(n int) bool {
	return b.ensure(b.Offset + n)
}

func (b *Buffer) ensure(size int) bool {
	if size <= len(b.Data) {
		return false
	}
	newCap := len(b.Data)
	for newCap < size {
		step := newCap
		if step > maxGrowStep {
			step = maxGrowStep
		}
		if step < 1 {
			step = 1
		}
		newCap += step
	}
	grown := make([]byte, newCap)
	copy(grown, b.Data[:b.Offset])
	b.Data = grown
	return true
}

// Truncate shrinks the capacity to newLen, or to the written length when
// newLen is zero. It returns the resulting capacity.
func (b *Buffer) Truncate(newLen int) int {
	if newLen == 0 {
		newLen = b.Offset
	}
	if newLen < b.Offset {
		panic(fmt.Sprintf("buffer: truncate to %d below written length %d", newLen, b.Offset))
	}
	if newLen != len(b.Data) {
		shrunk := make([]byte, newLen)
		copy(shrunk, b.Data[:b.Offset])
		b.Data = shrunk
	}
	return len(b.Data)
}

// Reset discards the written region but keeps the capacity.
func (b *Buffer) Reset() {
	b.Offset = 0
}

// Release drops the backing storage.
func (b *Buffer) Release() {
	b.Data = nil
	b.Offset = 0
}
