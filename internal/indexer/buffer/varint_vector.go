package buffer

// VarintVector accumulates an ascending sequence of uint32 values as
// delta-encoded varints. Term positions are pre-encoded this way before they
// are copied verbatim into a posting.
type VarintVector struct {
	buf  *Buffer
	w    *Writer
	last uint32
	n    int
}

func NewVarintVector(capacity int) *VarintVector {
	b := New(capacity)
	return &VarintVector{buf: b, w: NewWriter(b)}
}

// Write appends v and returns the bytes used. Values must not decrease.
func (v *VarintVector) Write(x uint32) int {
	n := v.w.WriteVarint(x - v.last)
	v.last = x
	v.n++
	return n
}

// Count is the number of values written.
func (v *VarintVector) Count() int { return v.n }

func (v *VarintVector) ByteLen() int { return v.buf.Len() }

// Bytes returns the encoded bytes; the slice aliases the vector.
func (v *VarintVector) Bytes() []byte { return v.buf.Bytes() }

// Truncate releases unused capacity and returns the byte length.
func (v *VarintVector) Truncate() int {
	v.buf.Truncate(0)
	return v.buf.Len()
}

func (v *VarintVector) Reset() {
	v.buf.Reset()
	v.w.Seek(0)
	v.last = 0
	v.n = 0
}

func (v *VarintVector) Release() {
	v.buf.Release()
}

// DecodeVarintVector expands delta-encoded bytes back into absolute values.
func DecodeVarintVector(p []byte) []uint32 {
	r := NewReader(Wrap(p))
	out := make([]uint32, 0, len(p))
	var last uint32
	for !r.AtEnd() {
		last += r.ReadVarint()
		out = append(out, last)
	}
	return out
}
