// Package iterator composes index readers into query evaluation trees.
//
// Every iterator walks document ids in strictly increasing order and owns the
// result it returns; the result is overwritten by the next Read or SkipTo.
package iterator

import (
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

// Iterator is a forward cursor over matching documents.
type Iterator interface {
	// Read advances to the next match.
	Read() (*index.Result, index.Status)
	// SkipTo advances to the first match with id >= docID. StatusNotFound
	// means the iterator stopped on a different id, or that docID itself is
	// excluded.
	SkipTo(docID index.DocID) (*index.Result, index.Status)
	Current() *index.Result
	LastDocID() index.DocID
	HasNext() bool
	// Len is an estimate of the number of matches.
	Len() int
	// Abort forces EOF on the next advance.
	Abort()
	Rewind()
	Free()
}

// ReadIterator adapts an index reader to the Iterator interface.
type ReadIterator struct {
	*index.Reader
}

func NewReadIterator(r *index.Reader) *ReadIterator {
	return &ReadIterator{Reader: r}
}

// Free is a no-op; the index belongs to the dictionary.
func (it *ReadIterator) Free() {}

// Empty never matches.
type Empty struct{}

func NewEmpty() *Empty { return &Empty{} }

func (Empty) Read() (*index.Result, index.Status) { return nil, index.StatusEOF }

func (Empty) SkipTo(index.DocID) (*index.Result, index.Status) { return nil, index.StatusEOF }

func (Empty) Current() *index.Result { return nil }
func (Empty) LastDocID() index.DocID { return 0 }
func (Empty) HasNext() bool { return false }
func (Empty) Len() int { return 0 }
func (Empty) Abort() {}
func (Empty) Rewind() {}
func (Empty) Free() {}

// Wildcard matches every id in [1, maxDocID].
type Wildcard struct {
	maxDocID index.DocID
	lastID   index.DocID
	result   *index.Result
	atEnd    bool
}

func NewWildcard(maxDocID index.DocID) *Wildcard {
	res := index.NewVirtualResult(1)
	res.Freq = 1
	return &Wildcard{maxDocID: maxDocID, result: res, atEnd: maxDocID == 0}
}

func (it *Wildcard) Read() (*index.Result, index.Status) {
	return it.SkipTo(it.lastID + 1)
}

func (it *Wildcard) SkipTo(docID index.DocID) (*index.Result, index.Status) {
	if docID == 0 {
		docID = it.lastID + 1
	}
	if it.atEnd || docID > it.maxDocID {
		it.atEnd = true
		return nil, index.StatusEOF
	}
	it.lastID = docID
	it.result.DocID = docID
	return it.result, index.StatusOK
}

func (it *Wildcard) Current() *index.Result { return it.result }
func (it *Wildcard) LastDocID() index.DocID { return it.lastID }
func (it *Wildcard) HasNext() bool { return !it.atEnd && it.lastID < it.maxDocID }
func (it *Wildcard) Len() int { return int(it.maxDocID) }
func (it *Wildcard) Abort() { it.atEnd = true }
func (it *Wildcard) Free() {}

func (it *Wildcard) Rewind() {
	it.lastID = 0
	it.result.DocID = 0
	it.atEnd = it.maxDocID == 0
}
