package index

import (
	"math"
	"sort"

	"github.com/tidwall/btree"
)

// RangeSplitThreshold is the number of postings a numeric range holds
// before it is split at its median value.
const RangeSplitThreshold = 1000

// NumericRange owns the postings for values in [Start, next range's Start).
type NumericRange struct {
	Start  float64
	MinVal float64
	MaxVal float64
	Index  *InvertedIndex
	values map[float64]struct{}
}

func newNumericRange(start float64) *NumericRange {
	return &NumericRange{
		Start:  start,
		MinVal: math.Inf(1),
		MaxVal: math.Inf(-1),
		Index:  New(StoreNumeric, true),
		values: make(map[float64]struct{}),
	}
}

func (r *NumericRange) add(docID DocID, value float64) int {
	sz := r.Index.WriteNumericEntry(docID, value)
	r.values[value] = struct{}{}
	if value < r.MinVal {
		r.MinVal = value
	}
	if value > r.MaxVal {
		r.MaxVal = value
	}
	return sz
}

// Cardinality is the number of distinct values seen by the range.
func (r *NumericRange) Cardinality() int { return len(r.values) }

// Overlaps reports whether the range may hold values inside [min, max].
func (r *NumericRange) Overlaps(min, max float64) bool {
	return r.Index.NumDocs() > 0 && r.MaxVal >= min && r.MinVal <= max
}

// NumericRangeTree indexes one numeric field as an ordered set of ranges,
// each backed by its own numeric inverted index.
type NumericRangeTree struct {
	tree       *btree.BTreeG[*NumericRange]
	lastDocID  DocID
	numEntries int
	revision   uint32
}

func rangeLess(a, b *NumericRange) bool { return a.Start < b.Start }

func NewNumericRangeTree() *NumericRangeTree {
	t := &NumericRangeTree{tree: btree.NewBTreeG[*NumericRange](rangeLess)}
	t.tree.Set(newNumericRange(math.Inf(-1)))
	return t
}

func (t *NumericRangeTree) NumRanges() int { return t.tree.Len() }

func (t *NumericRangeTree) NumEntries() int { return t.numEntries }

func (t *NumericRangeTree) LastDocID() DocID { return t.lastDocID }

// Revision changes whenever ranges are split or repaired.
func (t *NumericRangeTree) Revision() uint32 { return t.revision }

func (t *NumericRangeTree) rangeFor(value float64) *NumericRange {
	var found *NumericRange
	t.tree.Descend(&NumericRange{Start: value}, func(r *NumericRange) bool {
		found = r
		return false
	})
	if found == nil {
		found, _ = t.tree.Min()
	}
	return found
}

// Add records value for docID. A document contributes at most one value per
// field, so ids not above the last one written are ignored and 0 is returned.
func (t *NumericRangeTree) Add(docID DocID, value float64) int {
	if t.numEntries > 0 && docID <= t.lastDocID {
		return 0
	}
	r := t.rangeFor(value)
	sz := r.add(docID, value)
	t.lastDocID = docID
	t.numEntries++
	if int(r.Index.NumDocs()) > RangeSplitThreshold && r.Cardinality() > 1 {
		t.split(r)
	}
	return sz
}

// split divides r at its median distinct value into two ranges.
func (t *NumericRangeTree) split(r *NumericRange) {
	distinct := make([]float64, 0, len(r.values))
	for v := range r.values {
		distinct = append(distinct, v)
	}
	sort.Float64s(distinct)
	pivot := distinct[len(distinct)/2]

	left := newNumericRange(r.Start)
	right := newNumericRange(pivot)
	rd := NewNumericReader(r.Index, nil, 1)
	for {
		res, st := rd.Read()
		if st != StatusOK {
			break
		}
		if res.Value < pivot {
			left.add(res.DocID, res.Value)
		} else {
			right.add(res.DocID, res.Value)
		}
	}
	r.Index.Free()
	t.tree.Set(left)
	t.tree.Set(right)
	t.revision++
}

// Find returns the ranges that may hold values in [min, max], in ascending
// order.
func (t *NumericRangeTree) Find(min, max float64) []*NumericRange {
	var out []*NumericRange
	t.tree.Scan(func(r *NumericRange) bool {
		if r.Start > max {
			return false
		}
		if r.Overlaps(min, max) {
			out = append(out, r)
		}
		return true
	})
	return out
}

// Repair drops postings of deleted documents from every range.
func (t *NumericRangeTree) Repair(isDeleted func(DocID) bool) RepairStats {
	var total RepairStats
	t.tree.Scan(func(r *NumericRange) bool {
		s := r.Index.Repair(isDeleted)
		total.BlocksScanned += s.BlocksScanned
		total.BlocksRemoved += s.BlocksRemoved
		total.EntriesRemoved += s.EntriesRemoved
		total.BytesCollected += s.BytesCollected
		return true
	})
	if total.EntriesRemoved > 0 {
		t.numEntries -= total.EntriesRemoved
		t.revision++
	}
	return total
}

// MemoryUsage sums the encoded bytes of all ranges.
func (t *NumericRangeTree) MemoryUsage() int {
	total := 0
	t.tree.Scan(func(r *NumericRange) bool {
		total += r.Index.MemoryUsage()
		return true
	})
	return total
}
