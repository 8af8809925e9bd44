package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sch, err := schema.New("test", schema.Options{Stopwords: []string{"the"}},
		schema.Field{Name: "title", Type: schema.TypeText, Weight: 2, Options: schema.Sortable},
		schema.Field{Name: "body", Type: schema.TypeText},
		schema.Field{Name: "price", Type: schema.TypeNumeric, Options: schema.Sortable},
	)
	require.NoError(t, err)
	cfg := config.Default().Indexer
	cfg.GCScanSize = 2
	return NewEngine(cfg, sch, metrics.New(prometheus.NewRegistry()))
}

func doc(key string, price float64, title string, body ...string) *Document {
	return &Document{
		Key:     key,
		Score:   1,
		Text:    []TextField{{Field: "title", Tokens: []string{title}}, {Field: "body", Tokens: body}},
		Numeric: map[string]float64{"price": price},
	}
}

func readAll(r *index.Reader) []index.DocID {
	var ids []index.DocID
	for {
		res, st := r.Read()
		if st == index.StatusEOF {
			return ids
		}
		ids = append(ids, res.DocID)
	}
}

func TestIndexDocument(t *testing.T) {
	e := newTestEngine(t)
	id1, err := e.IndexDocument(doc("a", 10, "Hello", "the", "hello", "world"), false)
	require.NoError(t, err)
	id2, err := e.IndexDocument(doc("b", 20, "world", "foo"), false)
	require.NoError(t, err)
	assert.Equal(t, index.DocID(1), id1)
	assert.Equal(t, index.DocID(2), id2)

	_, err = e.IndexDocument(doc("a", 1, "x"), false)
	assert.True(t, apperrors.Is(err, apperrors.ErrDocumentExists))

	err = e.View(func(v *View) error {
		assert.Equal(t, 2, v.NumDocs())
		assert.Nil(t, v.Term("the"))

		hello := v.Term("HELLO")
		require.NotNil(t, hello)
		r := index.NewTermReader(hello, &index.Term{Str: "hello"}, index.AllFields, 1)
		res, st := r.Read()
		require.Equal(t, index.StatusOK, st)
		assert.Equal(t, id1, res.DocID)
		// title weight 2 plus one body occurrence
		assert.Equal(t, uint32(3), res.Freq)
		assert.Equal(t, index.FieldMask(3), res.FieldMask)
		assert.Equal(t, []uint32{1, 2}, bufferPositions(res))

		assert.Equal(t, []index.DocID{1, 2}, readAll(index.NewTermReader(v.Term("world"), nil, index.AllFields, 1)))
		assert.Equal(t, []string{"foo"}, v.Expand("fo", 0))

		ranges, err := v.NumericRanges("price", 15, 25)
		require.NoError(t, err)
		var ids []index.DocID
		for _, rng := range ranges {
			ids = append(ids, readAll(index.NewNumericReader(rng.Index, index.NewNumericFilter("price", 15, 25), 1))...)
		}
		assert.Equal(t, []index.DocID{2}, ids)

		_, err = v.NumericRanges("nope", 0, 1)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnknownField))

		md := v.Docs().Get(id1)
		require.NotNil(t, md)
		assert.Equal(t, uint32(3), md.Len)
		assert.Equal(t, uint32(3), md.MaxFreq)
		require.NotNil(t, md.SortVector)
		assert.Equal(t, "hello", md.SortVector.Get(0).Str)
		assert.Equal(t, 10.0, md.SortVector.Get(1).Num)
		return nil
	})
	require.NoError(t, err)
}

func bufferPositions(res *index.Result) []uint32 {
	var out []uint32
	it := index.IterateOffsets(res)
	for {
		p, _ := it.Next()
		if p == index.OffsetEOF {
			return out
		}
		out = append(out, p)
	}
}

func TestIndexDocumentRejectsUnknownFields(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.IndexDocument(&Document{Key: "a", Text: []TextField{{Field: "nope", Tokens: []string{"x"}}}}, false)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownField))

	_, err = e.IndexDocument(&Document{Key: "a", Numeric: map[string]float64{"title": 1}}, false)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownField))

	_, err = e.IndexDocument(&Document{}, false)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestReplaceAndDelete(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.IndexDocument(doc("a", 1, "old"), false)
	require.NoError(t, err)
	id, err := e.IndexDocument(doc("a", 2, "new"), true)
	require.NoError(t, err)
	assert.Equal(t, index.DocID(2), id)

	md, ok := e.GetDocument("a")
	require.True(t, ok)
	assert.Equal(t, id, md.ID)

	require.NoError(t, e.DeleteDocument("a"))
	assert.True(t, md.IsDeleted())
	md.Decref()

	err = e.DeleteDocument("a")
	assert.True(t, apperrors.Is(err, apperrors.ErrDocumentNotFound))
	_, ok = e.GetDocument("a")
	assert.False(t, ok)
	assert.Equal(t, 0, e.Stats().NumDocs)
}

func TestRunGC(t *testing.T) {
	e := newTestEngine(t)
	for i, w := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		_, err := e.IndexDocument(doc(w, float64(i), w, "shared"), false)
		require.NoError(t, err)
	}
	require.NoError(t, e.DeleteDocument("alpha"))
	require.NoError(t, e.DeleteDocument("gamma"))

	// six terms, two per pass
	var total int
	passes := 0
	for {
		stats := e.RunGC()
		passes++
		total += stats.EntriesRemoved
		if stats.CycleCompleted {
			assert.Zero(t, stats.PendingDeletes)
			break
		}
		require.Less(t, passes, 10)
	}
	assert.Equal(t, 3, passes)
	// alpha, gamma and two shared postings plus two numeric postings
	assert.Equal(t, 6, total)

	err := e.View(func(v *View) error {
		assert.Nil(t, v.Term("alpha"))
		assert.Equal(t, []index.DocID{2, 4, 5}, readAll(index.NewTermReader(v.Term("shared"), nil, index.AllFields, 1)))
		return nil
	})
	require.NoError(t, err)

	stats := e.RunGC()
	assert.False(t, stats.CycleCompleted)
	assert.Zero(t, stats.EntriesRemoved)
	assert.NoError(t, e.Close())
}

func TestPing(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Ping(context.Background()))

	e.mu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Ping(ctx), context.DeadlineExceeded)
	e.mu.Unlock()
}

func TestDeleteWithOutstandingReference(t *testing.T) {
	e := newTestEngine(t)
	d := doc("a", 1, "hello")
	d.Payload = []byte("meta")
	_, err := e.IndexDocument(d, false)
	require.NoError(t, err)

	md, ok := e.GetDocument("a")
	require.True(t, ok)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for !md.IsDeleted() {
			_ = md.Payload
		}
	}()
	require.NoError(t, e.DeleteDocument("a"))
	<-done

	assert.Equal(t, []byte("meta"), md.Payload)
	md.Decref()
	e.RunGC()
	assert.Nil(t, md.Payload)
}
