package index

import (
	"sort"
	"strings"
	"sync"
)

// Dictionary maps terms to their inverted indexes and keeps a sorted term
// list for prefix expansion.
type Dictionary struct {
	mu      sync.RWMutex
	flags   Flags
	encoder Encoder
	terms   map[string]*InvertedIndex
	sorted  []string
	dirty   bool
}

func NewDictionary(flags Flags) *Dictionary {
	return &Dictionary{
		flags:   flags,
		encoder: GetEncoder(flags),
		terms:   make(map[string]*InvertedIndex),
	}
}

func (d *Dictionary) Flags() Flags { return d.flags }

// Add writes an entry for e.Term, creating the term's index on first use,
// and returns the encoded size.
func (d *Dictionary) Add(e *Entry) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx, exists := d.terms[e.Term]
	if !exists {
		idx = New(d.flags, true)
		d.terms[e.Term] = idx
		d.dirty = true
	}
	return idx.WriteEntry(d.encoder, e)
}

// Get returns the index for term, or nil.
func (d *Dictionary) Get(term string) *InvertedIndex {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.terms[term]
}

// Expand returns up to limit terms starting with prefix, in lexical order.
func (d *Dictionary) Expand(prefix string, limit int) []string {
	d.mu.Lock()
	sorted := d.sortedTerms()
	d.mu.Unlock()

	start := sort.SearchStrings(sorted, prefix)
	out := make([]string, 0, 8)
	for i := start; i < len(sorted) && strings.HasPrefix(sorted[i], prefix); i++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, sorted[i])
	}
	return out
}

// Repair garbage collects up to scanSize term indexes starting at cursor and
// returns the next cursor, whether the walk reached the last term (the
// cursor is then 0) and the aggregated stats.
// Terms left with no postings are removed. Terms added between calls may be
// visited twice in one walk but none is skipped.
func (d *Dictionary) Repair(cursor, scanSize int, isDeleted func(DocID) bool) (int, bool, RepairStats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sorted := d.sortedTerms()
	var total RepairStats
	if cursor >= len(sorted) {
		cursor = 0
	}
	end := cursor + scanSize
	if scanSize <= 0 || end > len(sorted) {
		end = len(sorted)
	}
	removed := 0
	for _, term := range sorted[cursor:end] {
		idx := d.terms[term]
		s := idx.Repair(isDeleted)
		total.BlocksScanned += s.BlocksScanned
		total.BlocksRemoved += s.BlocksRemoved
		total.EntriesRemoved += s.EntriesRemoved
		total.BytesCollected += s.BytesCollected
		if idx.NumDocs() == 0 {
			idx.Free()
			delete(d.terms, term)
			d.dirty = true
			removed++
		}
	}
	if end >= len(sorted) {
		return 0, true, total
	}
	// removed terms shift the ones after them down
	return end - removed, false, total
}

// sortedTerms rebuilds the sorted term list when terms were added or
// removed. The returned slice is never mutated afterwards. Callers hold mu.
func (d *Dictionary) sortedTerms() []string {
	if d.dirty {
		sorted := make([]string, 0, len(d.terms))
		for term := range d.terms {
			sorted = append(sorted, term)
		}
		sort.Strings(sorted)
		d.sorted = sorted
		d.dirty = false
	}
	return d.sorted
}

// MemoryUsage sums the encoded bytes held by all terms.
func (d *Dictionary) MemoryUsage() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, idx := range d.terms {
		total += idx.MemoryUsage()
	}
	return total
}

func (d *Dictionary) NumTerms() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.terms)
}
