package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericEncodingSizes(t *testing.T) {
	infos := []struct {
		value float64
		size  int
	}{
		{0, 2},
		{1, 2},
		{63, 3},
		{-1, 3},
		{-63, 3},
		{64, 3},
		{-64, 3},
		{255, 3},
		{-255, 3},
		{65535, 4},
		{-65535, 4},
		{16777215, 5},
		{-16777215, 5},
		{4294967295, 6},
		{-4294967295, 6},
		{4294967295 + 1, 7},
		{4294967295 + 2, 7},
		{549755813888.0, 7},
		{549755813888.0 + 2, 7},
		{549755813888.0 - 23, 7},
		{-549755813888.0, 7},
		{1503342028.957225, 10},
		{42.4345, 6},
		{float64(float32(0.5)), 6},
		{math.MaxFloat64, 10},
		{float64(uint64(math.MaxUint64) >> 12), 9},
		{math.Inf(1), 2},
		{math.Inf(-1), 2},
	}

	idx := New(StoreNumeric, true)
	for i, info := range infos {
		sz := idx.WriteNumericEntry(DocID(i+1), info.value)
		assert.Equal(t, info.size, sz, "value %v", info.value)
	}

	r := NewNumericReader(idx, nil, 1)
	for _, info := range infos {
		res, st := r.Read()
		require.Equal(t, StatusOK, st)
		if math.IsInf(info.value, 0) {
			assert.Equal(t, info.value, res.Value)
		} else {
			assert.Less(t, math.Abs(info.value-res.Value), 0.01, "value %v", info.value)
		}
	}
	_, st := r.Read()
	assert.Equal(t, StatusEOF, st)
}

func TestNumericVaried(t *testing.T) {
	nums := []float64{0, 0.13, 0.001, -0.1, 1.0, 5.0, 4.323, 65535, 65535.53, 32768.432,
		1 << 32, -(1 << 32), 1 << 40}
	idx := New(StoreNumeric, true)
	for i, v := range nums {
		assert.Greater(t, idx.WriteNumericEntry(DocID(i+1), v), 1)
	}
	r := NewNumericReader(idx, nil, 1)
	for _, v := range nums {
		res, st := r.Read()
		require.NotEqual(t, StatusEOF, st)
		assert.Less(t, math.Abs(v-res.Value), 0.01)
	}
	_, st := r.Read()
	assert.Equal(t, StatusEOF, st)
}

func TestNumericInverted(t *testing.T) {
	idx := New(StoreNumeric, true)
	for i := 0; i < 75; i++ {
		assert.Greater(t, idx.WriteNumericEntry(DocID(i+1), float64(i+1)), 1)
	}
	assert.Equal(t, DocID(75), idx.LastID())

	r := NewNumericReader(idx, nil, 1)
	want := DocID(1)
	for {
		res, st := r.Read()
		if st == StatusEOF {
			break
		}
		assert.Equal(t, want, res.DocID)
		assert.Equal(t, float64(res.DocID), res.Value)
		want++
	}
	assert.Equal(t, DocID(76), want)
}

func TestNumericFilter(t *testing.T) {
	idx := New(StoreNumeric, true)
	for i := 1; i <= 20; i++ {
		idx.WriteNumericEntry(DocID(i), float64(i))
	}
	f := &NumericFilter{Min: 5, Max: 10, InclusiveMin: false, InclusiveMax: true}
	r := NewNumericReader(idx, f, 1)
	var got []DocID
	for {
		res, st := r.Read()
		if st == StatusEOF {
			break
		}
		got = append(got, res.DocID)
	}
	assert.Equal(t, []DocID{6, 7, 8, 9, 10}, got)
	assert.True(t, NewNumericFilter("n", 1, 1).Match(1))
}
