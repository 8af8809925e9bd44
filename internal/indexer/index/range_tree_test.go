package index

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRangeTreeSplitsAndFinds(t *testing.T) {
	tree := NewNumericRangeTree()
	const n = 5000
	for i := 1; i <= n; i++ {
		require.Greater(t, tree.Add(DocID(i), float64(i%1000)), 0)
	}
	assert.Equal(t, n, tree.NumEntries())
	assert.Greater(t, tree.NumRanges(), 1)
	assert.Greater(t, tree.Revision(), uint32(0))

	// duplicate ids are ignored
	assert.Equal(t, 0, tree.Add(DocID(n), 1))

	ranges := tree.Find(100, 199)
	require.NotEmpty(t, ranges)
	var got []DocID
	for _, rng := range ranges {
		r := NewNumericReader(rng.Index, NewNumericFilter("f", 100, 199), 1)
		for {
			res, st := r.Read()
			if st == StatusEOF {
				break
			}
			got = append(got, res.DocID)
		}
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	var want []DocID
	for i := 1; i <= n; i++ {
		if v := i % 1000; v >= 100 && v <= 199 {
			want = append(want, DocID(i))
		}
	}
	assert.Equal(t, want, got)
}

func TestNumericRangeTreeRepair(t *testing.T) {
	tree := NewNumericRangeTree()
	for i := 1; i <= 100; i++ {
		tree.Add(DocID(i), float64(i))
	}
	stats := tree.Repair(func(id DocID) bool { return id > 50 })
	assert.Equal(t, 50, stats.EntriesRemoved)
	assert.Equal(t, 50, tree.NumEntries())
	assert.Greater(t, tree.MemoryUsage(), 0)
}

func TestDictionaryExpandAndRepair(t *testing.T) {
	d := NewDictionary(DefaultFlags)
	terms := []string{"hello", "help", "helium", "world", "he"}
	for i, term := range terms {
		d.Add(&Entry{DocID: DocID(i + 1), FieldMask: 1, Freq: 1, Term: term})
	}
	assert.Equal(t, 5, d.NumTerms())
	assert.Equal(t, []string{"helium", "hello", "help"}, d.Expand("hel", 0))
	assert.Equal(t, []string{"he", "helium"}, d.Expand("he", 2))
	assert.Empty(t, d.Expand("zz", 0))
	require.NotNil(t, d.Get("world"))
	assert.Nil(t, d.Get("nope"))

	cursor, wrapped, stats := d.Repair(0, 10, func(id DocID) bool { return id == 4 })
	assert.Equal(t, 0, cursor)
	assert.True(t, wrapped)
	assert.Equal(t, 1, stats.EntriesRemoved)
	assert.Nil(t, d.Get("world"))
	assert.Equal(t, 4, d.NumTerms())
	assert.Greater(t, d.MemoryUsage(), 0)

	cursor, wrapped, _ = d.Repair(0, 2, func(DocID) bool { return false })
	assert.Equal(t, 2, cursor)
	assert.False(t, wrapped)
}

func TestDictionaryRepairCursorSkipsNothing(t *testing.T) {
	d := NewDictionary(DefaultFlags)
	for i, term := range []string{"a", "b", "c", "d", "e"} {
		d.Add(&Entry{DocID: DocID(i + 1), FieldMask: 1, Freq: 1, Term: term})
	}
	// a and b vanish in the first pass; c must still be visited next
	deleted := func(id DocID) bool { return id <= 3 }
	cursor, wrapped, stats := d.Repair(0, 2, deleted)
	assert.Equal(t, 0, cursor)
	assert.False(t, wrapped)
	assert.Equal(t, 2, stats.EntriesRemoved)

	cursor, wrapped, stats = d.Repair(cursor, 2, deleted)
	assert.Equal(t, 1, stats.EntriesRemoved)
	assert.Equal(t, 1, cursor)
	assert.False(t, wrapped)

	cursor, wrapped, _ = d.Repair(cursor, 2, deleted)
	assert.Equal(t, 0, cursor)
	assert.True(t, wrapped)
	assert.Equal(t, 2, d.NumTerms())
}
