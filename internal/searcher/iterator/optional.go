package iterator

import (
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

// Optional emits every id in [1, maxDocID]. Ids the child matches carry the
// child's result under the optional's weight; the rest carry a
// zero-frequency virtual result. The child's own weight is put back on the
// next advance.
type Optional struct {
	child      Iterator
	childHit   bool
	maxDocID   index.DocID
	lastID     index.DocID
	weight     float64
	virtual    *index.Result
	current    *index.Result
	lent       *index.Result
	lentWeight float64
	atEnd      bool
}

func NewOptional(child Iterator, maxDocID index.DocID, weight float64) *Optional {
	if child == nil {
		child = NewEmpty()
	}
	virt := index.NewVirtualResult(0)
	return &Optional{
		child:    child,
		maxDocID: maxDocID,
		weight:   weight,
		virtual:  virt,
		current:  virt,
		atEnd:    maxDocID == 0,
	}
}

func (it *Optional) Read() (*index.Result, index.Status) {
	return it.SkipTo(it.lastID + 1)
}

func (it *Optional) SkipTo(docID index.DocID) (*index.Result, index.Status) {
	it.restore()
	if docID == 0 {
		docID = it.lastID + 1
	}
	if it.atEnd || docID > it.maxDocID {
		it.atEnd = true
		return nil, index.StatusEOF
	}
	it.lastID = docID

	if it.child.LastDocID() < docID && it.child.HasNext() {
		res, st := it.child.SkipTo(docID)
		it.childHit = st == index.StatusOK || (st == index.StatusNotFound && res.DocID != docID)
	}
	if it.childHit && it.child.LastDocID() == docID {
		it.current = it.child.Current()
		it.lent, it.lentWeight = it.current, it.current.Weight
		it.current.Weight = it.weight
		return it.current, index.StatusOK
	}
	it.virtual.DocID = docID
	it.current = it.virtual
	return it.current, index.StatusOK
}

func (it *Optional) restore() {
	if it.lent != nil {
		it.lent.Weight = it.lentWeight
		it.lent = nil
	}
}

func (it *Optional) Current() *index.Result { return it.current }

func (it *Optional) LastDocID() index.DocID { return it.lastID }

func (it *Optional) HasNext() bool { return !it.atEnd && it.lastID < it.maxDocID }

func (it *Optional) Len() int { return int(it.maxDocID) }

func (it *Optional) Abort() {
	it.atEnd = true
	it.child.Abort()
}

func (it *Optional) Rewind() {
	it.restore()
	it.lastID = 0
	it.childHit = false
	it.virtual.DocID = 0
	it.current = it.virtual
	it.atEnd = it.maxDocID == 0
	it.child.Rewind()
}

func (it *Optional) Free() {
	it.restore()
	it.child.Free()
}
