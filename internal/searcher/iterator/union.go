package iterator

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

// Union emits every id matched by at least one child. The aggregate result
// holds the children positioned on that id, in child order. In quick mode
// only the first matching child is attached.
type Union struct {
	children []Iterator
	current  []*index.Result
	done     []bool
	result   *index.Result
	lastID   index.DocID
	quick    bool
	atEnd    bool
	length   int
}

func NewUnion(children []Iterator, weight float64, quick bool) *Union {
	u := &Union{
		children: children,
		current:  make([]*index.Result, len(children)),
		done:     make([]bool, len(children)),
		result:   index.NewUnionResult(len(children), weight),
		quick:    quick,
	}
	for _, c := range children {
		u.length += c.Len()
	}
	u.atEnd = len(children) == 0
	return u
}

func (u *Union) Read() (*index.Result, index.Status) {
	if u.atEnd {
		return nil, index.StatusEOF
	}
	for i, c := range u.children {
		if u.done[i] {
			continue
		}
		if u.current[i] != nil && u.current[i].DocID > u.lastID {
			continue
		}
		res, st := c.Read()
		if st == index.StatusEOF {
			u.done[i] = true
			u.current[i] = nil
			continue
		}
		u.current[i] = res
	}
	return u.collect(0)
}

func (u *Union) SkipTo(docID index.DocID) (*index.Result, index.Status) {
	if docID == 0 {
		return u.Read()
	}
	if u.atEnd {
		return nil, index.StatusEOF
	}
	for i, c := range u.children {
		if u.done[i] {
			continue
		}
		if u.current[i] != nil && u.current[i].DocID >= docID {
			continue
		}
		res, st := c.SkipTo(docID)
		if st == index.StatusNotFound && res != nil && res.DocID == docID {
			// docID is excluded by the child; step to its next match
			res, st = c.Read()
		}
		if st == index.StatusEOF {
			u.done[i] = true
			u.current[i] = nil
			continue
		}
		u.current[i] = res
	}
	return u.collect(docID)
}

// collect attaches the children sitting on the smallest current id.
func (u *Union) collect(want index.DocID) (*index.Result, index.Status) {
	minID := index.DocID(math.MaxUint64)
	for i, res := range u.current {
		if !u.done[i] && res != nil && res.DocID < minID {
			minID = res.DocID
		}
	}
	if minID == math.MaxUint64 {
		u.atEnd = true
		return nil, index.StatusEOF
	}

	u.result.ResetAggregate()
	for i, res := range u.current {
		if u.done[i] || res == nil || res.DocID != minID {
			continue
		}
		u.result.AddChild(res)
		if u.quick {
			break
		}
	}
	u.lastID = minID
	if want != 0 && minID != want {
		return u.result, index.StatusNotFound
	}
	return u.result, index.StatusOK
}

func (u *Union) Current() *index.Result { return u.result }

func (u *Union) LastDocID() index.DocID { return u.lastID }

func (u *Union) HasNext() bool { return !u.atEnd }

func (u *Union) Len() int { return u.length }

func (u *Union) Abort() {
	u.atEnd = true
	for _, c := range u.children {
		c.Abort()
	}
}

func (u *Union) Rewind() {
	u.lastID = 0
	u.atEnd = len(u.children) == 0
	u.result.ResetAggregate()
	for i, c := range u.children {
		c.Rewind()
		u.current[i] = nil
		u.done[i] = false
	}
}

func (u *Union) Free() {
	for _, c := range u.children {
		c.Free()
	}
}
