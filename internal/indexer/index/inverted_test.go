package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"
)

// createIndex writes size postings with ids step, 2*step, ... each carrying
// i%4 positions.
func createIndex(size int, step DocID) *InvertedIndex {
	idx := New(DefaultFlags, true)
	enc := GetEncoder(idx.Flags())
	id := step
	for i := 0; i < size; i++ {
		vv := buffer.NewVarintVector(8)
		for n := uint32(step); n < uint32(step)+uint32(i%4); n++ {
			vv.Write(n)
		}
		idx.WriteEntry(enc, &Entry{DocID: id, FieldMask: 1, Freq: 1, Term: "hello", Offsets: vv.Bytes()})
		id += step
	}
	return idx
}

func TestDeltaSplits(t *testing.T) {
	idx := New(DefaultFlags, true)
	enc := GetEncoder(idx.Flags())
	e := &Entry{DocID: 1, FieldMask: AllFields}

	idx.WriteEntry(enc, e)
	assert.Equal(t, 1, idx.NumBlocks())

	e.DocID = 200
	idx.WriteEntry(enc, e)
	assert.Equal(t, 1, idx.NumBlocks())

	e.DocID = 1 << 48
	idx.WriteEntry(enc, e)
	assert.Equal(t, 2, idx.NumBlocks())

	e.DocID++
	idx.WriteEntry(enc, e)
	assert.Equal(t, 2, idx.NumBlocks())

	r := NewTermReader(idx, nil, AllFields, 1)
	for _, want := range []DocID{1, 200, 1 << 48, 1<<48 + 1} {
		res, st := r.Read()
		require.Equal(t, StatusOK, st)
		assert.Equal(t, want, res.DocID)
	}
	_, st := r.Read()
	assert.Equal(t, StatusEOF, st)
}

func TestBlockSplitsEveryBlockSizeEntries(t *testing.T) {
	idx := createIndex(BlockSize*3+1, 1)
	assert.Equal(t, 4, idx.NumBlocks())
	assert.Equal(t, DocID(BlockSize+1), idx.Block(1).FirstID)
	assert.Equal(t, BlockSize, idx.Block(0).NumDocs)
	assert.Equal(t, 1, idx.Block(3).NumDocs)
	assert.Greater(t, idx.MemoryUsage(), 0)
}

func TestNonIncreasingWritePanics(t *testing.T) {
	idx := createIndex(3, 1)
	enc := GetEncoder(idx.Flags())
	assert.Panics(t, func() {
		idx.WriteEntry(enc, &Entry{DocID: 3})
	})
	assert.Panics(t, func() {
		idx.WriteEntry(enc, &Entry{DocID: 2})
	})
}

func TestRepairDropsDeletedPostings(t *testing.T) {
	idx := createIndex(250, 1)
	deleted := func(id DocID) bool { return id%2 == 0 || (id > 100 && id <= 200) }

	stats := idx.Repair(deleted)
	assert.Equal(t, 3, stats.BlocksScanned)
	assert.Equal(t, 1, stats.BlocksRemoved)
	assert.Equal(t, 50+100+25, stats.EntriesRemoved)
	assert.Equal(t, uint32(75), idx.NumDocs())
	assert.Equal(t, 2, idx.NumBlocks())
	assert.Equal(t, uint32(1), idx.GCMarker())

	r := NewTermReader(idx, nil, AllFields, 1)
	want := DocID(1)
	for {
		res, st := r.Read()
		if st == StatusEOF {
			break
		}
		for deleted(want) {
			want++
		}
		require.Equal(t, want, res.DocID)
		want++
	}
	assert.Equal(t, DocID(250), want)

	// appends still work after the tail block was rewritten
	idx.WriteEntry(GetEncoder(idx.Flags()), &Entry{DocID: 251, FieldMask: 1, Freq: 1})
	assert.Equal(t, DocID(251), idx.LastID())
}

func TestRepairNumeric(t *testing.T) {
	idx := New(StoreNumeric, true)
	for i := 1; i <= 10; i++ {
		idx.WriteNumericEntry(DocID(i), float64(i)*1.5)
	}
	stats := idx.Repair(func(id DocID) bool { return id <= 5 })
	assert.Equal(t, 5, stats.EntriesRemoved)

	r := NewNumericReader(idx, nil, 1)
	res, st := r.Read()
	require.Equal(t, StatusOK, st)
	assert.Equal(t, DocID(6), res.DocID)
	assert.InDelta(t, 9.0, res.Value, 0.01)
}
