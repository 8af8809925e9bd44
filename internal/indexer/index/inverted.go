package index

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"
)

const (
	// BlockSize is the number of postings after which a new block is opened.
	BlockSize = 100

	initialBlockCap = 6
)

// Block is a contiguous run of postings delta-encoded against FirstID.
type Block struct {
	FirstID DocID
	LastID  DocID
	NumDocs int
	buf     *buffer.Buffer
}

func newBlock(firstID DocID) *Block {
	return &Block{
		FirstID: firstID,
		LastID:  firstID,
		buf:     buffer.New(initialBlockCap),
	}
}

func (b *Block) Len() int { return b.buf.Len() }

// InvertedIndex is an append-only sequence of blocks for one term or one
// numeric field. It is not safe for concurrent writes; callers serialize
// ingestion and may read between writes.
type InvertedIndex struct {
	blocks  []*Block
	flags   Flags
	lastID  DocID
	numDocs uint32
	// gcMarker changes every time a Repair rewrites the blocks.
	gcMarker uint32
}

// New creates an index with the given flags. With initBlock the index starts
// with an empty block based at id 0, so the first delta is the id itself.
func New(flags Flags, initBlock bool) *InvertedIndex {
	idx := &InvertedIndex{flags: flags}
	if initBlock {
		idx.addBlock(0)
	}
	return idx
}

func (idx *InvertedIndex) Flags() Flags { return idx.flags }

func (idx *InvertedIndex) NumBlocks() int { return len(idx.blocks) }

func (idx *InvertedIndex) NumDocs() uint32 { return idx.numDocs }

func (idx *InvertedIndex) LastID() DocID { return idx.lastID }

func (idx *InvertedIndex) Block(i int) *Block { return idx.blocks[i] }

func (idx *InvertedIndex) GCMarker() uint32 { return idx.gcMarker }

// MemoryUsage is the number of encoded bytes held by the blocks.
func (idx *InvertedIndex) MemoryUsage() int {
	total := 0
	for _, b := range idx.blocks {
		total += b.buf.Cap()
	}
	return total
}

func (idx *InvertedIndex) addBlock(firstID DocID) *Block {
	b := newBlock(firstID)
	idx.blocks = append(idx.blocks, b)
	return b
}

// blockFor returns the block the next posting for docID goes into, opening a
// new one when the current block is full or the delta from its first id no
// longer fits in 32 bits.
func (idx *InvertedIndex) blockFor(docID DocID) *Block {
	if idx.numDocs > 0 && docID <= idx.lastID {
		panic(fmt.Sprintf("index: non-increasing document id %d (last %d)", docID, idx.lastID))
	}
	if len(idx.blocks) == 0 {
		return idx.addBlock(docID)
	}
	b := idx.blocks[len(idx.blocks)-1]
	if b.NumDocs >= BlockSize || uint64(docID-b.FirstID) > math.MaxUint32 {
		b.buf.Truncate(0)
		return idx.addBlock(docID)
	}
	return b
}

// WriteEntry appends a term posting and returns the encoded size.
func (idx *InvertedIndex) WriteEntry(enc Encoder, e *Entry) int {
	b := idx.blockFor(e.DocID)
	delta := uint32(e.DocID - b.LastID)
	sz := enc(buffer.NewWriter(b.buf), delta, e)
	idx.commit(b, e.DocID)
	return sz
}

// WriteNumericEntry appends a numeric posting and returns the encoded size.
func (idx *InvertedIndex) WriteNumericEntry(docID DocID, value float64) int {
	b := idx.blockFor(docID)
	delta := uint32(docID - b.LastID)
	sz := EncodeNumeric(buffer.NewWriter(b.buf), delta, value)
	idx.commit(b, docID)
	return sz
}

func (idx *InvertedIndex) commit(b *Block, docID DocID) {
	b.LastID = docID
	b.NumDocs++
	idx.lastID = docID
	idx.numDocs++
}

// Free releases all blocks.
func (idx *InvertedIndex) Free() {
	for _, b := range idx.blocks {
		b.buf.Release()
	}
	idx.blocks = nil
	idx.numDocs = 0
}

// RepairStats reports what a Repair pass removed.
type RepairStats struct {
	BlocksScanned  int
	BlocksRemoved  int
	EntriesRemoved int
	BytesCollected int
}

// Repair rewrites every block that holds postings for deleted documents,
// dropping those postings and any block left empty.
func (idx *InvertedIndex) Repair(isDeleted func(DocID) bool) RepairStats {
	var stats RepairStats
	dec := GetDecoder(idx.flags)
	enc := GetEncoder(idx.flags)
	numeric := idx.flags&StoreNumeric != 0

	kept := idx.blocks[:0]
	for _, b := range idx.blocks {
		stats.BlocksScanned++
		if !blockHasDeleted(b, dec, isDeleted) {
			kept = append(kept, b)
			continue
		}
		before := b.buf.Cap()
		rebuilt := repairBlock(b, dec, enc, numeric, isDeleted, &stats)
		if rebuilt.NumDocs == 0 {
			stats.BlocksRemoved++
			stats.BytesCollected += before
			continue
		}
		stats.BytesCollected += before - rebuilt.buf.Cap()
		kept = append(kept, rebuilt)
	}
	for i := len(kept); i < len(idx.blocks); i++ {
		idx.blocks[i] = nil
	}
	idx.blocks = kept
	if stats.EntriesRemoved > 0 {
		idx.numDocs -= uint32(stats.EntriesRemoved)
		idx.gcMarker++
	}
	return stats
}

func blockHasDeleted(b *Block, dec Decoder, isDeleted func(DocID) bool) bool {
	r := buffer.NewReader(b.buf)
	var res Result
	last := b.FirstID
	for !r.AtEnd() {
		dec(r, &res)
		last += res.DocID
		if isDeleted(last) {
			return true
		}
	}
	return false
}

func repairBlock(b *Block, dec Decoder, enc Encoder, numeric bool, isDeleted func(DocID) bool, stats *RepairStats) *Block {
	var out *Block
	r := buffer.NewReader(b.buf)
	var res Result
	last := b.FirstID
	for !r.AtEnd() {
		dec(r, &res)
		last += res.DocID
		if isDeleted(last) {
			stats.EntriesRemoved++
			continue
		}
		if out == nil {
			// keep the original base so the first rewritten delta stays valid
			out = newBlock(b.FirstID)
		}
		w := buffer.NewWriter(out.buf)
		delta := uint32(last - out.LastID)
		if numeric {
			EncodeNumeric(w, delta, res.Value)
		} else {
			enc(w, delta, &Entry{
				DocID:     last,
				FieldMask: res.FieldMask,
				Freq:      float32(res.Freq),
				Offsets:   res.Offsets,
			})
		}
		out.LastID = last
		out.NumDocs++
	}
	if out == nil {
		return &Block{FirstID: b.FirstID, buf: buffer.New(1)}
	}
	out.buf.Truncate(0)
	return out
}
