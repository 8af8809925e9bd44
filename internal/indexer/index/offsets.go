package index

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"
)

// OffsetEOF terminates every offset iterator.
const OffsetEOF = math.MaxUint32

// OffsetIterator walks term positions in ascending order. Next returns the
// position and the term leaf it came from, or OffsetEOF.
type OffsetIterator interface {
	Next() (uint32, *Result)
	Rewind()
}

// IterateOffsets returns an iterator over every position held by r. For
// aggregates the children's positions are merged.
func IterateOffsets(r *Result) OffsetIterator {
	switch {
	case r.Kind == KindTerm:
		return newTermOffsetIterator(r)
	case r.IsAggregate():
		if len(r.Children) == 1 {
			return IterateOffsets(r.Children[0])
		}
		return newMergedOffsetIterator(r)
	}
	return emptyOffsetIterator{}
}

type emptyOffsetIterator struct{}

func (emptyOffsetIterator) Next() (uint32, *Result) { return OffsetEOF, nil }

func (emptyOffsetIterator) Rewind() {}

type termOffsetIterator struct {
	res  *Result
	br   *buffer.Reader
	last uint32
}

func newTermOffsetIterator(r *Result) *termOffsetIterator {
	return &termOffsetIterator{res: r, br: buffer.NewReader(buffer.Wrap(r.Offsets))}
}

func (it *termOffsetIterator) Next() (uint32, *Result) {
	if it.br.AtEnd() {
		return OffsetEOF, it.res
	}
	it.last += it.br.ReadVarint()
	return it.last, it.res
}

func (it *termOffsetIterator) Rewind() {
	it.br.Seek(0)
	it.last = 0
}

// mergedOffsetIterator is a k-way merge over the children of an aggregate.
type mergedOffsetIterator struct {
	its   []OffsetIterator
	pos   []uint32
	terms []*Result
}

func newMergedOffsetIterator(r *Result) *mergedOffsetIterator {
	m := &mergedOffsetIterator{
		its:   make([]OffsetIterator, len(r.Children)),
		pos:   make([]uint32, len(r.Children)),
		terms: make([]*Result, len(r.Children)),
	}
	for i, c := range r.Children {
		m.its[i] = IterateOffsets(c)
	}
	m.fill()
	return m
}

func (m *mergedOffsetIterator) fill() {
	for i, it := range m.its {
		m.pos[i], m.terms[i] = it.Next()
	}
}

func (m *mergedOffsetIterator) Next() (uint32, *Result) {
	minPos := uint32(OffsetEOF)
	minIdx := -1
	for i, p := range m.pos {
		if p < minPos {
			minPos = p
			minIdx = i
		}
	}
	if minIdx < 0 {
		return OffsetEOF, nil
	}
	term := m.terms[minIdx]
	m.pos[minIdx], m.terms[minIdx] = m.its[minIdx].Next()
	return minPos, term
}

func (m *mergedOffsetIterator) Rewind() {
	for _, it := range m.its {
		it.Rewind()
	}
	m.fill()
}

func absDelta(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// MinOffsetDelta estimates how close the terms of an aggregate appear to each
// other: the square root of the summed squared minimal distances between
// consecutive children with offsets. Non-aggregates and single-child
// aggregates return 1.
func MinOffsetDelta(r *Result) int {
	if !r.IsAggregate() || len(r.Children) <= 1 {
		return 1
	}
	children := r.Children
	num := len(children)
	dist := 0
	i := 0
	for i < num {
		for i < num && !children[i].HasOffsets() {
			i++
		}
		if i == num {
			break
		}
		v1 := IterateOffsets(children[i])
		i++
		for i < num && !children[i].HasOffsets() {
			i++
		}
		if i == num {
			if dist == 0 {
				dist = 100
			}
			break
		}
		v2 := IterateOffsets(children[i])

		p1, _ := v1.Next()
		p2, _ := v2.Next()
		cd := absDelta(p2, p1)
		for cd > 1 && p1 != OffsetEOF && p2 != OffsetEOF {
			if d := absDelta(p2, p1); d < cd {
				cd = d
			}
			if p2 > p1 {
				p1, _ = v1.Next()
			} else {
				p2, _ = v2.Next()
			}
		}
		dist += cd * cd
	}
	if dist > 0 {
		return int(math.Sqrt(float64(dist)))
	}
	return num - 1
}

// IsWithinRange reports whether the positions of an aggregate's children
// fit in a window with at most maxSlop intervening positions. With inOrder
// the children must also appear in their declared order. A negative maxSlop
// disables the check.
func IsWithinRange(r *Result, maxSlop int, inOrder bool) bool {
	if maxSlop < 0 {
		return true
	}
	if !r.IsAggregate() || len(r.Children) <= 1 {
		return true
	}
	its := make([]OffsetIterator, 0, len(r.Children))
	for _, c := range r.Children {
		if c.HasOffsets() {
			its = append(its, IterateOffsets(c))
		}
	}
	if len(its) <= 1 {
		return true
	}
	positions := make([]uint32, len(its))
	if inOrder {
		return withinRangeInOrder(its, positions, maxSlop)
	}
	return withinRangeUnordered(its, positions, maxSlop)
}

func withinRangeInOrder(its []OffsetIterator, positions []uint32, maxSlop int) bool {
	for {
		span := 0
		for i, it := range its {
			var pos, lastPos uint32
			if i == 0 {
				pos, _ = it.Next()
			} else {
				pos = positions[i]
				lastPos = positions[i-1]
			}
			for pos != OffsetEOF && pos < lastPos {
				pos, _ = it.Next()
			}
			if pos == OffsetEOF {
				return false
			}
			positions[i] = pos
			if i > 0 {
				span += int(pos) - int(lastPos) - 1
				if span > maxSlop {
					break
				}
			}
		}
		if span <= maxSlop {
			return true
		}
	}
}

func withinRangeUnordered(its []OffsetIterator, positions []uint32, maxSlop int) bool {
	for i, it := range its {
		positions[i], _ = it.Next()
	}
	max := positions[0]
	for _, p := range positions[1:] {
		if p >= max {
			max = p
		}
	}
	n := len(its)
	for {
		minIdx := 0
		min := positions[0]
		for i := 1; i < n; i++ {
			if positions[i] < min {
				min = positions[i]
				minIdx = i
			}
		}
		if min != max {
			if span := int(max) - int(min) - (n - 1); span <= maxSlop {
				return true
			}
		}
		next, _ := its[minIdx].Next()
		if next == OffsetEOF {
			return false
		}
		positions[minIdx] = next
		if next > max {
			max = next
		}
	}
}
