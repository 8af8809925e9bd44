package buffer

import (
	"encoding/binary"
	"fmt"
)

// Reader consumes a Buffer's written region. Every call site bounds its reads
// by a prior length check, so reading past the end is a programming error and
// panics.
type Reader struct {
	buf *Buffer
	pos int
}

func NewReader(b *Buffer) *Reader {
	return &Reader{buf: b}
}

// NewReaderAt starts reading at an absolute offset.
func NewReaderAt(b *Buffer, pos int) *Reader {
	return &Reader{buf: b, pos: pos}
}

func (r *Reader) Offset() int { return r.pos }

func (r *Reader) AtEnd() bool { return r.pos >= r.buf.Offset }

func (r *Reader) Remaining() int { return r.buf.Offset - r.pos }

func (r *Reader) Read(p []byte) int {
	r.check(len(p))
	n := copy(p, r.buf.Data[r.pos:r.pos+len(p)])
	r.pos += n
	return n
}

// Next returns the next n bytes without copying; the slice aliases the buffer.
func (r *Reader) Next(n int) []byte {
	r.check(n)
	p := r.buf.Data[r.pos : r.pos+n]
	r.pos += n
	return p
}

func (r *Reader) ReadByte() (byte, error) {
	r.check(1)
	c := r.buf.Data[r.pos]
	r.pos++
	return c, nil
}

func (r *Reader) Skip(n int) {
	r.check(n)
	r.pos += n
}

func (r *Reader) Seek(pos int) {
	if pos < 0 || pos > r.buf.Offset {
		panic("buffer: seek out of range")
	}
	r.pos = pos
}

func (r *Reader) ReadVarint() uint32 {
	return uint32(r.readUvarint())
}

func (r *Reader) ReadVarintFieldMask() uint64 {
	return r.readUvarint()
}

func (r *Reader) readUvarint() uint64 {
	v, n := binary.Uvarint(r.buf.Data[r.pos:r.buf.Offset])
	if n <= 0 {
		panic(fmt.Sprintf("buffer: malformed varint at offset %d", r.pos))
	}
	r.pos += n
	return v
}

func (r *Reader) check(n int) {
	if n < 0 || r.pos+n > r.buf.Offset {
		panic(fmt.Sprintf("buffer: read of %d bytes at offset %d past end %d", n, r.pos, r.buf.Offset))
	}
}
