package doctable

import (
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
)

type Flags uint8

const (
	DefaultFlags  Flags = 0
	Deleted       Flags = 1 << 0
	HasPayload    Flags = 1 << 1
	HasSortVector Flags = 1 << 2
)

// Metadata describes one document. It is reference counted: the table holds
// one reference until the document is deleted and every reader that keeps
// the metadata past its read lock takes another. Flags may be read from any
// goroutine; Payload and SortVector stay intact until the last reference is
// dropped.
type Metadata struct {
	ID         index.DocID
	Key        []byte
	Score      float64
	Payload    []byte
	SortVector *sortable.Vector

	// Len is the number of indexed tokens and MaxFreq the frequency of the
	// most frequent term.
	Len     uint32
	MaxFreq uint32

	flags  atomic.Uint32
	refs   atomic.Int32
	onZero func(*Metadata)
}

func (md *Metadata) Flags() Flags { return Flags(md.flags.Load()) }

func (md *Metadata) IsDeleted() bool { return md.Flags()&Deleted != 0 }

func (md *Metadata) setFlags(f Flags) { md.flags.Or(uint32(f)) }

func (md *Metadata) clearFlags(f Flags) { md.flags.And(^uint32(f)) }

func (md *Metadata) Incref() { md.refs.Add(1) }

// Decref drops a reference and returns the remaining count. The last
// reference hands the metadata to the table for reclamation.
func (md *Metadata) Decref() int32 {
	n := md.refs.Add(-1)
	if n == 0 && md.onZero != nil {
		md.onZero(md)
	}
	return n
}

func (md *Metadata) Refs() int32 { return md.refs.Load() }

func (md *Metadata) memoryUsage() int {
	n := 64 + len(md.Key) + len(md.Payload)
	if md.SortVector != nil {
		n += md.SortVector.MemoryUsage()
	}
	return n
}
