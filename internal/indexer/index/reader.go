package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"
)

// Status is the outcome of a Read or SkipTo.
type Status int

const (
	StatusOK Status = iota
	StatusEOF
	// StatusNotFound means SkipTo stopped past the requested id.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusEOF:
		return "EOF"
	case StatusNotFound:
		return "NOTFOUND"
	}
	return "UNKNOWN"
}

// NumericFilter restricts a numeric reader to a value range.
type NumericFilter struct {
	Field        string
	Min          float64
	Max          float64
	InclusiveMin bool
	InclusiveMax bool
}

// NewNumericFilter builds an inclusive range filter.
func NewNumericFilter(field string, min, max float64) *NumericFilter {
	return &NumericFilter{Field: field, Min: min, Max: max, InclusiveMin: true, InclusiveMax: true}
}

func (f *NumericFilter) Match(v float64) bool {
	lower := v > f.Min || (f.InclusiveMin && v == f.Min)
	upper := v < f.Max || (f.InclusiveMax && v == f.Max)
	return lower && upper
}

// Reader is a forward cursor over one inverted index. It owns a single
// result that is overwritten on every Read.
type Reader struct {
	idx       *InvertedIndex
	decoder   Decoder
	br        *buffer.Reader
	blockIdx  int
	cursorID  DocID
	lastID    DocID
	fieldMask FieldMask
	filter    *NumericFilter
	record    *Result
	numeric   bool
	atEnd     bool
	read      int
}

// NewTermReader reads a term index, emitting only postings whose field mask
// intersects fieldMask.
func NewTermReader(idx *InvertedIndex, term *Term, fieldMask FieldMask, weight float64) *Reader {
	r := &Reader{
		idx:       idx,
		decoder:   GetDecoder(idx.flags),
		fieldMask: fieldMask,
		record:    NewTermResult(term, weight),
	}
	r.Rewind()
	return r
}

// NewNumericReader reads a numeric index. A nil filter accepts every value.
func NewNumericReader(idx *InvertedIndex, filter *NumericFilter, weight float64) *Reader {
	r := &Reader{
		idx:       idx,
		decoder:   GetDecoder(StoreNumeric),
		fieldMask: AllFields,
		filter:    filter,
		record:    NewNumericResult(weight),
		numeric:   true,
	}
	r.Rewind()
	return r
}

func (r *Reader) Index() *InvertedIndex { return r.idx }

func (r *Reader) Current() *Result { return r.record }

func (r *Reader) LastDocID() DocID { return r.lastID }

func (r *Reader) HasNext() bool { return !r.atEnd }

// Len is the number of postings in the underlying index.
func (r *Reader) Len() int { return int(r.idx.NumDocs()) }

// ReadCount is the number of results emitted since the last rewind.
func (r *Reader) ReadCount() int { return r.read }

func (r *Reader) Abort() { r.atEnd = true }

func (r *Reader) Rewind() {
	r.blockIdx = 0
	r.lastID = 0
	r.read = 0
	r.atEnd = r.idx.NumBlocks() == 0
	if !r.atEnd {
		r.loadBlock(0)
	}
}

func (r *Reader) loadBlock(i int) {
	b := r.idx.blocks[i]
	r.blockIdx = i
	r.br = buffer.NewReader(b.buf)
	r.cursorID = b.FirstID
}

// Read decodes the next posting that passes the reader's filters. EOF is
// sticky until Rewind.
func (r *Reader) Read() (*Result, Status) {
	if r.atEnd {
		return nil, StatusEOF
	}
	for {
		for r.br.AtEnd() {
			if r.blockIdx+1 >= r.idx.NumBlocks() {
				r.atEnd = true
				return nil, StatusEOF
			}
			r.loadBlock(r.blockIdx + 1)
		}
		r.decoder(r.br, r.record)
		r.cursorID += r.record.DocID
		r.record.DocID = r.cursorID
		if !r.accept() {
			continue
		}
		r.lastID = r.cursorID
		if r.numeric {
			r.record.Freq = 1
		}
		r.read++
		return r.record, StatusOK
	}
}

func (r *Reader) accept() bool {
	if r.numeric {
		return r.filter == nil || r.filter.Match(r.record.Value)
	}
	if r.idx.flags&StoreFieldFlags == 0 {
		return true
	}
	return r.record.FieldMask&r.fieldMask != 0
}

// SkipTo advances to the first posting with id >= docID. It returns
// StatusOK on an exact hit, StatusNotFound when it stopped on a larger id and
// StatusEOF when no such posting exists.
func (r *Reader) SkipTo(docID DocID) (*Result, Status) {
	if docID == 0 {
		return r.Read()
	}
	if r.atEnd || docID > r.idx.lastID {
		r.atEnd = true
		return nil, StatusEOF
	}
	if cur := r.idx.blocks[r.blockIdx]; docID > cur.LastID {
		r.seekBlock(docID)
	}
	for {
		res, st := r.Read()
		if st == StatusEOF {
			return nil, StatusEOF
		}
		if res.DocID < docID {
			continue
		}
		if res.DocID == docID {
			return res, StatusOK
		}
		return res, StatusNotFound
	}
}

// seekBlock jumps to the first later block whose last id reaches docID.
func (r *Reader) seekBlock(docID DocID) {
	blocks := r.idx.blocks
	from := r.blockIdx + 1
	i := from + sort.Search(len(blocks)-from, func(j int) bool {
		return blocks[from+j].LastID >= docID
	})
	if i >= len(blocks) {
		i = len(blocks) - 1
	}
	r.loadBlock(i)
}

