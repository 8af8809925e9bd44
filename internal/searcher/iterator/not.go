package iterator

import (
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

// Not emits every id in [1, maxDocID] that its child does not match.
type Not struct {
	child    Iterator
	childHit bool
	maxDocID index.DocID
	lastID   index.DocID
	result   *index.Result
	atEnd    bool
}

func NewNot(child Iterator, maxDocID index.DocID) *Not {
	if child == nil {
		child = NewEmpty()
	}
	return &Not{
		child:    child,
		maxDocID: maxDocID,
		result:   index.NewVirtualResult(1),
		atEnd:    maxDocID == 0,
	}
}

func (it *Not) Read() (*index.Result, index.Status) {
	for !it.atEnd {
		res, st := it.SkipTo(it.lastID + 1)
		if st != index.StatusNotFound {
			return res, st
		}
	}
	return nil, index.StatusEOF
}

// SkipTo reports StatusNotFound when the child matches docID; the iterator
// still moves to docID so the caller can step past it.
func (it *Not) SkipTo(docID index.DocID) (*index.Result, index.Status) {
	if docID == 0 {
		return it.Read()
	}
	if it.atEnd || docID > it.maxDocID {
		it.atEnd = true
		return nil, index.StatusEOF
	}
	it.lastID = docID
	it.result.DocID = docID
	if it.excluded(docID) {
		return it.result, index.StatusNotFound
	}
	return it.result, index.StatusOK
}

func (it *Not) excluded(docID index.DocID) bool {
	last := it.child.LastDocID()
	switch {
	case last > docID:
		return false
	case last == docID:
		return it.childHit
	case !it.child.HasNext():
		return false
	}
	res, st := it.child.SkipTo(docID)
	switch st {
	case index.StatusOK:
		it.childHit = true
		return true
	case index.StatusNotFound:
		it.childHit = res.DocID != docID
	}
	return false
}

func (it *Not) Current() *index.Result { return it.result }

func (it *Not) LastDocID() index.DocID { return it.lastID }

func (it *Not) HasNext() bool { return !it.atEnd && it.lastID < it.maxDocID }

func (it *Not) Len() int {
	if n := int(it.maxDocID) - it.child.Len(); n > 0 {
		return n
	}
	return 0
}

func (it *Not) Abort() {
	it.atEnd = true
	it.child.Abort()
}

func (it *Not) Rewind() {
	it.lastID = 0
	it.childHit = false
	it.result.DocID = 0
	it.atEnd = it.maxDocID == 0
	it.child.Rewind()
}

func (it *Not) Free() { it.child.Free() }
