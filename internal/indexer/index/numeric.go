package index

import (
	"encoding/binary"
	"math"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"
)

// Numeric postings are [varint delta][header][value bytes]. The low two bits
// of the header carry the value type; the remaining bits depend on it:
//
//	tiny:    bits 2-4 hold an integer 0..7, no value bytes
//	posInt:  bits 2-4 hold the byte count - 1, value is little-endian
//	negInt:  same as posInt, the value is negated on decode
//	float:   bit 2 infinity, bit 3 negative, bit 4 float64 (else float32)
const (
	numTiny   = 0
	numFloat  = 1
	numPosInt = 2
	numNegInt = 3

	numFloatInf    = 0x04
	numFloatNeg    = 0x08
	numFloatDouble = 0x10

	float32Tolerance = 0.01
	twoTo64          = 18446744073709551616.0
)

// EncodeNumeric writes one numeric posting and returns the bytes written.
func EncodeNumeric(w *buffer.Writer, delta uint32, value float64) int {
	n := w.WriteVarint(delta)
	abs := math.Abs(value)

	if value >= 0 && value <= 7 && value == math.Trunc(value) {
		w.WriteByte(byte(numTiny | uint8(value)<<2))
		return n + 1
	}

	if abs == math.Trunc(abs) && abs < twoTo64 {
		u := uint64(abs)
		var scratch [8]byte
		binary.LittleEndian.PutUint64(scratch[:], u)
		size := 8
		for size > 1 && scratch[size-1] == 0 {
			size--
		}
		typ := byte(numPosInt)
		if value < 0 {
			typ = numNegInt
		}
		w.WriteByte(typ | byte(size-1)<<2)
		return n + 1 + w.Write(scratch[:size])
	}

	header := byte(numFloat)
	if value < 0 || math.Signbit(value) {
		header |= numFloatNeg
	}
	if math.IsInf(value, 0) {
		w.WriteByte(header | numFloatInf)
		return n + 1
	}

	f32 := float32(abs)
	if math.Abs(abs-float64(f32)) < float32Tolerance {
		var scratch [4]byte
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(f32))
		w.WriteByte(header)
		return n + 1 + w.Write(scratch[:])
	}

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(abs))
	w.WriteByte(header | numFloatDouble)
	return n + 1 + w.Write(scratch[:])
}

func decodeNumeric(r *buffer.Reader, res *Result) {
	res.DocID = DocID(r.ReadVarint())
	res.Value = DecodeNumericValue(r)
}

// DecodeNumericValue reads the header and value bytes written after the delta.
func DecodeNumericValue(r *buffer.Reader) float64 {
	header, _ := r.ReadByte()
	switch header & 0x03 {
	case numTiny:
		return float64(header >> 2 & 0x07)
	case numPosInt, numNegInt:
		size := int(header>>2&0x07) + 1
		var scratch [8]byte
		copy(scratch[:], r.Next(size))
		v := float64(binary.LittleEndian.Uint64(scratch[:]))
		if header&0x03 == numNegInt {
			return -v
		}
		return v
	}

	sign := 1.0
	if header&numFloatNeg != 0 {
		sign = -1
	}
	if header&numFloatInf != 0 {
		return math.Inf(int(sign))
	}
	if header&numFloatDouble != 0 {
		return sign * math.Float64frombits(binary.LittleEndian.Uint64(r.Next(8)))
	}
	return sign * float64(math.Float32frombits(binary.LittleEndian.Uint32(r.Next(4))))
}
