package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/doctable"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

func leaf(freq uint32, idf, weight float64) *index.Result {
	r := index.NewTermResult(&index.Term{Str: "t", IDF: idf}, weight)
	r.Freq = freq
	return r
}

func TestTFIDF(t *testing.T) {
	s := TFIDF{}
	assert.Equal(t, 1.0, s.IDF(1, 1))
	assert.Equal(t, 0.0, s.IDF(10, 0))
	assert.InDelta(t, math.Log2(11), s.IDF(10, 1), 1e-9)

	md := &doctable.Metadata{Score: 2, MaxFreq: 4}
	assert.InDelta(t, 3*1.5*2.0/4*2, s.Score(leaf(3, 1.5, 2), md, IndexStats{}), 1e-9)

	union := index.NewUnionResult(2, 0.5)
	union.Children = append(union.Children, leaf(1, 1, 1), leaf(2, 1, 1))
	assert.InDelta(t, 0.5*3/4*2, s.Score(union, md, IndexStats{}), 1e-9)

	// missing MaxFreq counts as 1
	assert.InDelta(t, 1.0, s.Score(leaf(1, 1, 1), &doctable.Metadata{Score: 1}, IndexStats{}), 1e-9)
}

func TestBM25(t *testing.T) {
	s := BM25{}
	assert.Greater(t, s.IDF(100, 1), s.IDF(100, 50))
	assert.Equal(t, 0.0, s.IDF(100, 0))

	stats := IndexStats{NumDocs: 10, AvgDocLen: 10}
	short := s.Score(leaf(2, 1, 1), &doctable.Metadata{Score: 1, Len: 5}, stats)
	long := s.Score(leaf(2, 1, 1), &doctable.Metadata{Score: 1, Len: 50}, stats)
	assert.Greater(t, short, long)

	assert.Zero(t, s.Score(leaf(2, 1, 1), &doctable.Metadata{Score: 1, Len: 5}, IndexStats{}))
}

func TestForName(t *testing.T) {
	for name, want := range map[string]string{"": "TFIDF", "tfidf": "TFIDF", "BM25": "BM25", "DocScore": "DOCSCORE"} {
		s, err := ForName(name)
		require.NoError(t, err)
		assert.Equal(t, want, s.Name())
	}
	_, err := ForName("random")
	assert.Error(t, err)

	s, _ := ForName("docscore")
	assert.Equal(t, 7.0, s.Score(leaf(1, 1, 1), &doctable.Metadata{Score: 7}, IndexStats{}))
}
