// Package doctable assigns internal document ids and stores per-document
// metadata.
//
// A DocTable is not safe for concurrent mutation; the engine serializes
// writers. Metadata reference counts may be dropped from any goroutine.
package doctable

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
)

const maxGrowStep = 1024 * 1024

// DocTable maps ids to metadata through a bucket array of at most maxSize
// chains, and keys to ids through a hash map. Ids start at 1 and are never
// reused.
type DocTable struct {
	buckets  [][]*Metadata
	maxSize  int
	size     int
	maxDocID index.DocID
	live     int
	memSize  int
	keys     map[string]index.DocID
	deleted  *roaring64.Bitmap

	mu      sync.Mutex
	pending []*Metadata
}

func New(capacity, maxSize int) *DocTable {
	if maxSize <= 0 {
		maxSize = 1
	}
	if capacity > maxSize {
		capacity = maxSize
	}
	return &DocTable{
		buckets: make([][]*Metadata, capacity),
		maxSize: maxSize,
		size:    1,
		keys:    make(map[string]index.DocID),
		deleted: roaring64.New(),
	}
}

func (t *DocTable) bucket(id index.DocID) int {
	if id < index.DocID(t.maxSize) {
		return int(id)
	}
	return int(id % index.DocID(t.maxSize))
}

func (t *DocTable) grow(b int) {
	for b >= len(t.buckets) && len(t.buckets) < t.maxSize {
		n := len(t.buckets)
		n += 1 + min(n/2, maxGrowStep)
		n = min(n, t.maxSize)
		grown := make([][]*Metadata, n)
		copy(grown, t.buckets)
		t.buckets = grown
	}
}

// Put registers a new document and returns its id, or 0 when the key is
// already present.
func (t *DocTable) Put(key []byte, score float64, flags Flags, payload []byte) index.DocID {
	if _, ok := t.keys[string(key)]; ok {
		return 0
	}
	id := index.DocID(t.size)
	t.size++

	md := &Metadata{
		ID:     id,
		Key:    append([]byte(nil), key...),
		Score:  score,
		onZero: t.enqueue,
	}
	md.setFlags(flags)
	if len(payload) > 0 {
		md.Payload = append([]byte(nil), payload...)
		md.setFlags(HasPayload)
	}
	md.refs.Store(1)

	b := t.bucket(id)
	t.grow(b)
	t.buckets[b] = append(t.buckets[b], md)
	t.keys[string(key)] = id
	t.maxDocID = id
	t.live++
	t.memSize += md.memoryUsage()
	return id
}

// Get returns the live metadata of id, or nil for unknown and deleted ids.
func (t *DocTable) Get(id index.DocID) *Metadata {
	md := t.lookup(id)
	if md == nil || md.IsDeleted() {
		return nil
	}
	return md
}

func (t *DocTable) lookup(id index.DocID) *Metadata {
	if id == 0 || id > t.maxDocID {
		return nil
	}
	b := t.bucket(id)
	if b >= len(t.buckets) {
		return nil
	}
	for _, md := range t.buckets[b] {
		if md.ID == id {
			return md
		}
	}
	return nil
}

func (t *DocTable) GetID(key []byte) index.DocID {
	return t.keys[string(key)]
}

func (t *DocTable) GetByKey(key []byte) *Metadata {
	return t.Get(t.GetID(key))
}

func (t *DocTable) Exists(id index.DocID) bool {
	return t.Get(id) != nil
}

func (t *DocTable) GetScore(id index.DocID) float64 {
	if md := t.Get(id); md != nil {
		return md.Score
	}
	return 0
}

func (t *DocTable) GetKey(id index.DocID) []byte {
	if md := t.Get(id); md != nil {
		return md.Key
	}
	return nil
}

// SetPayload replaces the payload of a live document. Like every other
// mutation it must not run concurrently with readers of the payload.
func (t *DocTable) SetPayload(id index.DocID, payload []byte) bool {
	md := t.Get(id)
	if md == nil {
		return false
	}
	t.memSize -= len(md.Payload)
	md.Payload = nil
	md.clearFlags(HasPayload)
	if len(payload) > 0 {
		md.Payload = append([]byte(nil), payload...)
		md.setFlags(HasPayload)
		t.memSize += len(payload)
	}
	return true
}

func (t *DocTable) SetSortingVector(id index.DocID, v *sortable.Vector) bool {
	md := t.Get(id)
	if md == nil {
		return false
	}
	if md.SortVector != nil {
		t.memSize -= md.SortVector.MemoryUsage()
	}
	md.SortVector = v
	md.setFlags(HasSortVector)
	if v != nil {
		t.memSize += v.MemoryUsage()
	}
	return true
}

// Delete marks the document deleted, drops its key and releases the table's
// reference. Holders of other references still see the metadata, payload
// included, with the Deleted flag set; the payload goes on Reclaim.
func (t *DocTable) Delete(key []byte) bool {
	id, ok := t.keys[string(key)]
	if !ok {
		return false
	}
	md := t.Get(id)
	if md == nil {
		return false
	}
	delete(t.keys, string(key))
	md.setFlags(Deleted)
	t.deleted.Add(uint64(id))
	t.live--
	md.Decref()
	return true
}

func (t *DocTable) enqueue(md *Metadata) {
	t.mu.Lock()
	t.pending = append(t.pending, md)
	t.mu.Unlock()
}

// Reclaim unlinks the metadata whose reference count reached zero and
// returns how many slots it freed.
func (t *DocTable) Reclaim() int {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, md := range pending {
		b := t.bucket(md.ID)
		chain := t.buckets[b]
		for i, cur := range chain {
			if cur == md {
				t.buckets[b] = append(chain[:i], chain[i+1:]...)
				break
			}
		}
		t.memSize -= md.memoryUsage()
		md.Payload = nil
		md.SortVector = nil
		md.clearFlags(HasPayload | HasSortVector)
	}
	return len(pending)
}

// DeletedIDs returns a snapshot of the ids deleted since the last
// ClearDeleted.
func (t *DocTable) DeletedIDs() *roaring64.Bitmap {
	return t.deleted.Clone()
}

// ClearDeleted forgets ids whose postings have been collected.
func (t *DocTable) ClearDeleted(ids *roaring64.Bitmap) {
	t.deleted.AndNot(ids)
}

// Size is the next id to be assigned.
func (t *DocTable) Size() int { return t.size }

func (t *DocTable) MaxDocID() index.DocID { return t.maxDocID }

// NumDocs is the number of live documents.
func (t *DocTable) NumDocs() int { return t.live }

func (t *DocTable) MemoryUsage() int { return t.memSize }
