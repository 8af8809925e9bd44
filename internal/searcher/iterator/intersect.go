package iterator

import (
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

// Intersect emits the ids matched by all of its children. A non-negative
// maxSlop additionally requires the children's term positions to fit within
// the slop, in query order when inOrder is set.
type Intersect struct {
	children  []Iterator
	hit       []bool
	result    *index.Result
	fieldMask index.FieldMask
	maxSlop   int
	inOrder   bool
	lastID    index.DocID
	atEnd     bool
	length    int
}

func NewIntersect(children []Iterator, fieldMask index.FieldMask, maxSlop int, inOrder bool, weight float64) *Intersect {
	it := &Intersect{
		children:  children,
		hit:       make([]bool, len(children)),
		result:    index.NewIntersectResult(len(children), weight),
		fieldMask: fieldMask,
		maxSlop:   maxSlop,
		inOrder:   inOrder,
		atEnd:     len(children) == 0,
	}
	for i, c := range children {
		if n := c.Len(); i == 0 || n < it.length {
			it.length = n
		}
	}
	return it
}

func (it *Intersect) Read() (*index.Result, index.Status) {
	if it.atEnd {
		return nil, index.StatusEOF
	}
	return it.next(it.lastID + 1)
}

func (it *Intersect) SkipTo(docID index.DocID) (*index.Result, index.Status) {
	if docID == 0 {
		return it.Read()
	}
	if it.atEnd {
		return nil, index.StatusEOF
	}
	res, st := it.next(docID)
	if st == index.StatusOK && res.DocID != docID {
		return res, index.StatusNotFound
	}
	return res, st
}

// next finds the first id >= target on which every child agrees.
func (it *Intersect) next(target index.DocID) (*index.Result, index.Status) {
outer:
	for {
		it.result.ResetAggregate()
		for i, c := range it.children {
			res, hit, ok := it.position(i, c, target)
			if !ok {
				it.atEnd = true
				return nil, index.StatusEOF
			}
			if res.DocID > target {
				target = res.DocID
				continue outer
			}
			if !hit {
				target++
				continue outer
			}
			it.result.AddChild(res)
		}

		it.lastID = target
		if it.maxSlop >= 0 && !index.IsWithinRange(it.result, it.maxSlop, it.inOrder) {
			target++
			continue
		}
		if it.result.FieldMask&it.fieldMask == 0 {
			target++
			continue
		}
		return it.result, index.StatusOK
	}
}

// position brings child i to target or beyond. hit reports whether the
// child actually matches the id it stopped on.
func (it *Intersect) position(i int, c Iterator, target index.DocID) (*index.Result, bool, bool) {
	if c.LastDocID() >= target {
		return c.Current(), it.hit[i], true
	}
	res, st := c.SkipTo(target)
	if st == index.StatusEOF {
		return nil, false, false
	}
	it.hit[i] = st == index.StatusOK || res.DocID != target
	return res, it.hit[i], true
}

func (it *Intersect) Current() *index.Result { return it.result }

func (it *Intersect) LastDocID() index.DocID { return it.lastID }

func (it *Intersect) HasNext() bool { return !it.atEnd }

func (it *Intersect) Len() int { return it.length }

func (it *Intersect) Abort() {
	it.atEnd = true
	for _, c := range it.children {
		c.Abort()
	}
}

func (it *Intersect) Rewind() {
	it.lastID = 0
	it.atEnd = len(it.children) == 0
	it.result.ResetAggregate()
	for i, c := range it.children {
		c.Rewind()
		it.hit[i] = false
	}
}

func (it *Intersect) Free() {
	for _, c := range it.children {
		c.Free()
	}
}
