package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
)

func ids(docs []ranker.ScoredDoc) []index.DocID {
	out := make([]index.DocID, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestTopKByScore(t *testing.T) {
	top := New(3, ByScore)
	for i, s := range []float64{0.5, 3, 1, 3, 0.1, 2} {
		top.Push(ranker.ScoredDoc{ID: index.DocID(i + 1), Score: s})
	}
	assert.Equal(t, 3, top.Len())
	// ties go to the lower id
	assert.Equal(t, []index.DocID{2, 4, 6}, ids(top.Results()))
	assert.Zero(t, top.Len())
}

func TestTopKBySortKeys(t *testing.T) {
	vec := func(n float64) *sortable.Vector {
		v := sortable.NewVector(1)
		v.Put(0, sortable.NumberValue(n))
		return v
	}
	top := New(10, BySortKeys([]sortable.Key{{Index: 0, Ascending: true}}))
	top.Push(ranker.ScoredDoc{ID: 1, Score: 9, SortVector: vec(30)})
	top.Push(ranker.ScoredDoc{ID: 2, Score: 1, SortVector: vec(10)})
	top.Push(ranker.ScoredDoc{ID: 3, Score: 5, SortVector: vec(10)})
	top.Push(ranker.ScoredDoc{ID: 4, Score: 2})
	// equal keys fall back to score, missing vectors go last
	assert.Equal(t, []index.DocID{3, 2, 1, 4}, ids(top.Results()))
}

func TestMerge(t *testing.T) {
	merged := Merge([][]ranker.ScoredDoc{
		{{ID: 1, Score: 1}, {ID: 2, Score: 4}},
		{{ID: 3, Score: 3}},
		nil,
	}, 2)
	assert.Equal(t, []index.DocID{2, 3}, ids(merged))

	assert.Empty(t, Merge(nil, 0))
}
