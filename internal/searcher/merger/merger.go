// Package merger selects the best documents from a stream of ranked hits.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
)

// Better reports whether a ranks ahead of b.
type Better func(a, b *ranker.ScoredDoc) bool

// ByScore ranks higher scores first and breaks ties by lower doc id.
func ByScore(a, b *ranker.ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// BySortKeys orders by the documents' sorting vectors, falling back to
// ByScore for equal or incomparable keys. Documents without a vector sort
// last.
func BySortKeys(keys []sortable.Key) Better {
	return func(a, b *ranker.ScoredDoc) bool {
		switch {
		case a.SortVector == nil && b.SortVector != nil:
			return false
		case a.SortVector != nil && b.SortVector == nil:
			return true
		case a.SortVector != nil:
			if rc, err := sortable.CmpMulti(a.SortVector, b.SortVector, keys); err == nil && rc != 0 {
				return rc < 0
			}
		}
		return ByScore(a, b)
	}
}

// TopK keeps the limit best documents pushed into it.
type TopK struct {
	h     docHeap
	limit int
}

func New(limit int, better Better) *TopK {
	if limit <= 0 {
		limit = 10
	}
	return &TopK{
		h:     docHeap{better: better, docs: make([]ranker.ScoredDoc, 0, min(limit, 1024))},
		limit: limit,
	}
}

func (t *TopK) Len() int { return t.h.Len() }

// Push offers doc. It is dropped when the heap is full and doc does not
// beat the current worst entry.
func (t *TopK) Push(doc ranker.ScoredDoc) {
	if t.h.Len() < t.limit {
		heap.Push(&t.h, doc)
		return
	}
	if t.h.better(&doc, &t.h.docs[0]) {
		t.h.docs[0] = doc
		heap.Fix(&t.h, 0)
	}
}

// Results drains the heap best-first.
func (t *TopK) Results() []ranker.ScoredDoc {
	result := make([]ranker.ScoredDoc, t.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&t.h).(ranker.ScoredDoc)
	}
	return result
}

// Merge combines several ranked lists into the limit best by score.
func Merge(lists [][]ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	t := New(limit, ByScore)
	for _, results := range lists {
		for _, doc := range results {
			t.Push(doc)
		}
	}
	return t.Results()
}

// docHeap keeps the worst document at the root.
type docHeap struct {
	docs   []ranker.ScoredDoc
	better Better
}

func (h docHeap) Len() int { return len(h.docs) }

func (h docHeap) Less(i, j int) bool { return h.better(&h.docs[j], &h.docs[i]) }

func (h docHeap) Swap(i, j int) { h.docs[i], h.docs[j] = h.docs[j], h.docs[i] }

func (h *docHeap) Push(x interface{}) {
	h.docs = append(h.docs, x.(ranker.ScoredDoc))
}

func (h *docHeap) Pop() interface{} {
	old := h.docs
	n := len(old)
	item := old[n-1]
	h.docs = old[:n-1]
	return item
}
