package buffer

import "encoding/binary"

// Writer appends into a Buffer at a movable cursor.
type Writer struct {
	buf *Buffer
	pos int
}

// NewWriter positions a writer at the end of the buffer's written region.
func NewWriter(b *Buffer) *Writer {
	return &Writer{buf: b, pos: b.Offset}
}

func (w *Writer) Buffer() *Buffer { return w.buf }

func (w *Writer) Pos() int { return w.pos }

// Write copies p at the cursor, growing the buffer when needed, and returns
// the number of bytes written.
func (w *Writer) Write(p []byte) int {
	end := w.pos + len(p)
	w.buf.ensure(end)
	copy(w.buf.Data[w.pos:end], p)
	w.pos = end
	if end > w.buf.Offset {
		w.buf.Offset = end
	}
	return len(p)
}

func (w *Writer) WriteByte(c byte) error {
	var one [1]byte
	one[0] = c
	w.Write(one[:])
	return nil
}

// WriteVarint writes v as a little-endian base-128 varint.
func (w *Writer) WriteVarint(v uint32) int {
	var scratch [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(scratch[:], uint64(v))
	return w.Write(scratch[:n])
}

// WriteVarintFieldMask writes a field mask of up to 64 bits with the same
// varint scheme, so masks from wide schemas take as many bytes as they need.
func (w *Writer) WriteVarintFieldMask(mask uint64) int {
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], mask)
	return w.Write(scratch[:n])
}

// Seek moves the cursor to an absolute position inside the written region.
func (w *Writer) Seek(pos int) {
	if pos < 0 || pos > w.buf.Offset {
		panic("buffer: seek out of range")
	}
	w.pos = pos
}

func (w *Writer) Release() {
	w.buf.Release()
	w.pos = 0
}

// VarintLen returns the encoded size of v.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
