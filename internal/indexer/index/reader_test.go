package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderReadsInOrder(t *testing.T) {
	idx := createIndex(10, 1)
	r := NewTermReader(idx, &Term{Str: "hello"}, AllFields, 1)
	assert.Equal(t, 10, r.Len())

	i := DocID(1)
	for r.HasNext() {
		res, st := r.Read()
		if st == StatusEOF {
			break
		}
		assert.Equal(t, i, res.DocID)
		assert.Equal(t, "hello", res.Term.Str)
		assert.Equal(t, KindTerm, res.Kind)
		i++
	}
	assert.Equal(t, DocID(11), i)
	assert.False(t, r.HasNext())

	// EOF is sticky
	_, st := r.Read()
	assert.Equal(t, StatusEOF, st)

	r.Rewind()
	res, st := r.Read()
	require.Equal(t, StatusOK, st)
	assert.Equal(t, DocID(1), res.DocID)
}

func TestReaderSkipTo(t *testing.T) {
	idx := createIndex(1000, 3)
	r := NewTermReader(idx, nil, AllFields, 1)

	res, st := r.SkipTo(300)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, DocID(300), res.DocID)

	res, st = r.SkipTo(301)
	require.Equal(t, StatusNotFound, st)
	assert.Equal(t, DocID(303), res.DocID)
	assert.Equal(t, DocID(303), r.LastDocID())

	// far jump crosses several blocks
	res, st = r.SkipTo(2400)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, DocID(2400), res.DocID)

	res, st = r.SkipTo(0)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, DocID(2403), res.DocID)

	_, st = r.SkipTo(3001)
	assert.Equal(t, StatusEOF, st)
	assert.False(t, r.HasNext())
	_, st = r.SkipTo(10)
	assert.Equal(t, StatusEOF, st)
}

func TestReaderFieldMaskFilter(t *testing.T) {
	idx := New(DefaultFlags, true)
	enc := GetEncoder(idx.Flags())
	for i := 1; i <= 10; i++ {
		mask := FieldMask(1)
		if i%2 == 0 {
			mask = 2
		}
		idx.WriteEntry(enc, &Entry{DocID: DocID(i), FieldMask: mask, Freq: 1})
	}

	r := NewTermReader(idx, nil, 2, 1)
	var got []DocID
	for {
		res, st := r.Read()
		if st == StatusEOF {
			break
		}
		got = append(got, res.DocID)
	}
	assert.Equal(t, []DocID{2, 4, 6, 8, 10}, got)
}

func TestReaderAbort(t *testing.T) {
	idx := createIndex(1000, 1)
	r := NewTermReader(idx, nil, AllFields, 1)
	n := 0
	for {
		_, st := r.Read()
		if st == StatusEOF {
			break
		}
		if n == 50 {
			r.Abort()
		}
		n++
	}
	assert.Equal(t, 51, n)
}

func TestReaderOnEmptyIndex(t *testing.T) {
	r := NewTermReader(New(DefaultFlags, false), nil, AllFields, 1)
	assert.False(t, r.HasNext())
	_, st := r.Read()
	assert.Equal(t, StatusEOF, st)
	_, st = r.SkipTo(5)
	assert.Equal(t, StatusEOF, st)
}
