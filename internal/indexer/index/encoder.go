package index

import "github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"

// Encoder writes one posting given its delta from the previous id in the
// block and returns the number of bytes written.
type Encoder func(w *buffer.Writer, delta uint32, e *Entry) int

// Decoder reads one posting into res. res.DocID receives the raw delta; the
// reader rebases it.
type Decoder func(r *buffer.Reader, res *Result)

// GetEncoder picks the encoder for a flag set. It returns nil for numeric
// indexes, which are written with WriteNumericEntry.
func GetEncoder(flags Flags) Encoder {
	switch normalizeFlags(flags) {
	case StoreFreqs | StoreFieldFlags | StoreTermOffsets:
		return encodeFull
	case StoreFreqs | StoreFieldFlags | StoreTermOffsets | WideSchema:
		return encodeFullWide
	case StoreFreqs | StoreFieldFlags:
		return encodeFreqsFields
	case StoreFreqs | StoreFieldFlags | WideSchema:
		return encodeFreqsFieldsWide
	case StoreFreqs | StoreTermOffsets:
		return encodeFreqsOffsets
	case StoreFreqs:
		return encodeFreqsOnly
	case StoreFieldFlags | StoreTermOffsets:
		return encodeFieldsOffsets
	case StoreFieldFlags | StoreTermOffsets | WideSchema:
		return encodeFieldsOffsetsWide
	case StoreFieldFlags:
		return encodeFieldsOnly
	case StoreFieldFlags | WideSchema:
		return encodeFieldsOnlyWide
	case StoreTermOffsets:
		return encodeOffsetsOnly
	case 0:
		return encodeDocIDsOnly
	}
	return nil
}

// GetDecoder returns the decoder matching GetEncoder for the same flags.
func GetDecoder(flags Flags) Decoder {
	f := normalizeFlags(flags)
	if f&StoreNumeric != 0 {
		return decodeNumeric
	}
	freqs := f&StoreFreqs != 0
	fields := f&StoreFieldFlags != 0
	wide := f&WideSchema != 0
	offsets := f&StoreTermOffsets != 0

	switch {
	case freqs && fields && offsets && wide:
		return decodeFullWide
	case freqs && fields && offsets:
		return decodeFull
	}
	return func(r *buffer.Reader, res *Result) {
		res.DocID = DocID(r.ReadVarint())
		res.Freq = 1
		if freqs {
			res.Freq = r.ReadVarint()
		}
		res.FieldMask = AllFields
		if fields {
			if wide {
				res.FieldMask = FieldMask(r.ReadVarintFieldMask())
			} else {
				res.FieldMask = FieldMask(r.ReadVarint())
			}
		}
		res.Offsets = nil
		if offsets {
			n := int(r.ReadVarint())
			res.Offsets = r.Next(n)
		}
	}
}

// normalizeFlags drops bits that do not affect the byte layout.
func normalizeFlags(flags Flags) Flags {
	f := flags & encoderMask
	if f&StoreNumeric != 0 {
		return StoreNumeric
	}
	if f&StoreFieldFlags == 0 {
		f &^= WideSchema
	}
	return f
}

func writeOffsets(w *buffer.Writer, offsets []byte) int {
	n := w.WriteVarint(uint32(len(offsets)))
	return n + w.Write(offsets)
}

func encodeFull(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarint(uint32(e.Freq))
	n += w.WriteVarint(uint32(e.FieldMask))
	return n + writeOffsets(w, e.Offsets)
}

func encodeFullWide(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarint(uint32(e.Freq))
	n += w.WriteVarintFieldMask(uint64(e.FieldMask))
	return n + writeOffsets(w, e.Offsets)
}

func encodeFreqsFields(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarint(uint32(e.Freq))
	return n + w.WriteVarint(uint32(e.FieldMask))
}

func encodeFreqsFieldsWide(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarint(uint32(e.Freq))
	return n + w.WriteVarintFieldMask(uint64(e.FieldMask))
}

func encodeFreqsOffsets(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarint(uint32(e.Freq))
	return n + writeOffsets(w, e.Offsets)
}

func encodeFreqsOnly(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	return n + w.WriteVarint(uint32(e.Freq))
}

func encodeFieldsOffsets(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarint(uint32(e.FieldMask))
	return n + writeOffsets(w, e.Offsets)
}

func encodeFieldsOffsetsWide(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	n += w.WriteVarintFieldMask(uint64(e.FieldMask))
	return n + writeOffsets(w, e.Offsets)
}

func encodeFieldsOnly(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	return n + w.WriteVarint(uint32(e.FieldMask))
}

func encodeFieldsOnlyWide(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	return n + w.WriteVarintFieldMask(uint64(e.FieldMask))
}

func encodeOffsetsOnly(w *buffer.Writer, delta uint32, e *Entry) int {
	n := w.WriteVarint(delta)
	return n + writeOffsets(w, e.Offsets)
}

func encodeDocIDsOnly(w *buffer.Writer, delta uint32, _ *Entry) int {
	return w.WriteVarint(delta)
}

func decodeFull(r *buffer.Reader, res *Result) {
	res.DocID = DocID(r.ReadVarint())
	res.Freq = r.ReadVarint()
	res.FieldMask = FieldMask(r.ReadVarint())
	n := int(r.ReadVarint())
	res.Offsets = r.Next(n)
}

func decodeFullWide(r *buffer.Reader, res *Result) {
	res.DocID = DocID(r.ReadVarint())
	res.Freq = r.ReadVarint()
	res.FieldMask = FieldMask(r.ReadVarintFieldMask())
	n := int(r.ReadVarint())
	res.Offsets = r.Next(n)
}
