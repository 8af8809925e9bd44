package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/buffer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/doctable"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
)

// Engine owns one index: the term dictionary, one numeric range tree per
// numeric field and the document table. Writes take the engine lock
// exclusively; queries run inside View under the shared lock.
type Engine struct {
	mu      sync.RWMutex
	schema  *schema.Schema
	terms   *index.Dictionary
	numeric map[string]*index.NumericRangeTree
	docs    *doctable.DocTable
	cfg     config.IndexerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	totalLen uint64

	gcCursor   int
	gcSnapshot *roaring64.Bitmap
}

// NewEngine creates an empty engine. m may be nil.
func NewEngine(cfg config.IndexerConfig, sch *schema.Schema, m *metrics.Metrics) *Engine {
	e := &Engine{
		schema:  sch,
		terms:   index.NewDictionary(sch.Flags()),
		numeric: make(map[string]*index.NumericRangeTree),
		docs:    doctable.New(cfg.InitialDocTableCap, cfg.MaxDocTableSize),
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer", "index", sch.Name),
	}
	for _, f := range sch.Fields() {
		if f.Type == schema.TypeNumeric && f.IsIndexed() {
			e.numeric[strings.ToLower(f.Name)] = index.NewNumericRangeTree()
		}
	}
	return e
}

func (e *Engine) Schema() *schema.Schema { return e.schema }

// IndexDocument adds doc and returns its internal id. An existing key is
// rejected with ErrDocumentExists unless replace is set, in which case the
// old document is deleted first.
func (e *Engine) IndexDocument(doc *Document, replace bool) (index.DocID, error) {
	if doc.Key == "" {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "document key is empty")
	}
	terms, docLen, err := e.analyze(doc)
	if err != nil {
		return 0, err
	}
	vec := e.sortVector(doc)

	e.mu.Lock()
	defer e.mu.Unlock()

	key := []byte(doc.Key)
	if e.docs.GetID(key) != 0 {
		if !replace {
			return 0, apperrors.Newf(apperrors.ErrDocumentExists, "%s", doc.Key)
		}
		e.deleteLocked(key)
	}

	id := e.docs.Put(key, doc.Score, doctable.DefaultFlags, doc.Payload)
	md := e.docs.Get(id)
	md.Len = docLen
	if vec != nil {
		e.docs.SetSortingVector(id, vec)
	}

	written := 0
	for term, acc := range terms {
		entry := &index.Entry{
			DocID:     id,
			FieldMask: index.FieldMask(acc.fieldMask),
			Freq:      float32(acc.freq),
			Term:      term,
		}
		if e.schema.Flags().Has(index.StoreTermOffsets) {
			vv := buffer.NewVarintVector(len(acc.positions) * 2)
			for _, p := range acc.positions {
				vv.Write(p)
			}
			entry.Offsets = vv.Bytes()
		}
		written += e.terms.Add(entry)
		if acc.freq > md.MaxFreq {
			md.MaxFreq = acc.freq
		}
	}
	for name, v := range doc.Numeric {
		tree := e.numeric[strings.ToLower(name)]
		if tree == nil {
			continue
		}
		written += tree.Add(id, v)
	}
	e.totalLen += uint64(docLen)

	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.DocTableSize.Set(float64(e.docs.NumDocs()))
	}
	e.logger.Debug("document indexed",
		"key", doc.Key,
		"doc_id", id,
		"terms", len(terms),
		"bytes", written,
	)
	return id, nil
}

// analyze folds the document tokens into per-term accumulators. It reads
// only the immutable schema and runs outside the engine lock.
func (e *Engine) analyze(doc *Document) (map[string]*termAccumulator, uint32, error) {
	terms := make(map[string]*termAccumulator)
	var pos uint32
	for _, tf := range doc.Text {
		f := e.schema.Field(tf.Field)
		if f == nil || f.Type != schema.TypeText {
			return nil, 0, apperrors.Newf(apperrors.ErrUnknownField, "no text field %q", tf.Field)
		}
		if !f.IsIndexed() {
			continue
		}
		inc := uint32(f.Weight)
		if inc == 0 {
			inc = 1
		}
		for _, tok := range tf.Tokens {
			tok = strings.ToLower(tok)
			if tok == "" || e.schema.IsStopWord(tok) {
				continue
			}
			pos++
			acc := terms[tok]
			if acc == nil {
				acc = &termAccumulator{}
				terms[tok] = acc
			}
			acc.freq += inc
			acc.fieldMask |= uint64(f.Bit())
			acc.positions = append(acc.positions, pos)
		}
	}
	for name := range doc.Numeric {
		f := e.schema.Field(name)
		if f == nil || f.Type != schema.TypeNumeric {
			return nil, 0, apperrors.Newf(apperrors.ErrUnknownField, "no numeric field %q", name)
		}
	}
	return terms, pos, nil
}

func (e *Engine) sortVector(doc *Document) *sortable.Vector {
	tbl := e.schema.Sortables()
	if tbl.Len() == 0 {
		return nil
	}
	vec := sortable.NewVector(tbl.Len())
	for _, f := range e.schema.Fields() {
		idx := f.SortIdx()
		if idx < 0 {
			continue
		}
		switch f.Type {
		case schema.TypeNumeric:
			if v, ok := lookupFold(doc.Numeric, f.Name); ok {
				vec.Put(idx, sortable.NumberValue(v))
			}
		case schema.TypeText:
			if s, ok := lookupFold(doc.SortText, f.Name); ok {
				vec.Put(idx, sortable.StringValue(s))
				continue
			}
			for _, tf := range doc.Text {
				if strings.EqualFold(tf.Field, f.Name) {
					vec.Put(idx, sortable.StringValue(strings.Join(tf.Tokens, " ")))
					break
				}
			}
		}
	}
	return vec
}

func lookupFold[V any](m map[string]V, name string) (V, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// DeleteDocument removes the document with key. Its postings stay in the
// indexes until garbage collection repairs them.
func (e *Engine) DeleteDocument(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.deleteLocked([]byte(key)) {
		return apperrors.Newf(apperrors.ErrDocumentNotFound, "%s", key)
	}
	if e.metrics != nil {
		e.metrics.DocsDeletedTotal.Inc()
		e.metrics.DocTableSize.Set(float64(e.docs.NumDocs()))
	}
	e.logger.Debug("document deleted", "key", key)
	return nil
}

func (e *Engine) deleteLocked(key []byte) bool {
	md := e.docs.GetByKey(key)
	if md == nil {
		return false
	}
	e.totalLen -= uint64(md.Len)
	return e.docs.Delete(key)
}

// GetDocument returns the metadata of key with an extra reference held.
// Callers must Decref it when done.
func (e *Engine) GetDocument(key string) (*doctable.Metadata, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	md := e.docs.GetByKey([]byte(key))
	if md == nil {
		return nil, false
	}
	md.Incref()
	return md, true
}

// View runs fn under the shared engine lock. Everything reachable from the
// view is only valid until fn returns.
func (e *Engine) View(fn func(v *View) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(&View{e: e})
}

// View is a read-only window onto the engine.
type View struct {
	e *Engine
}

func (v *View) Schema() *schema.Schema { return v.e.schema }

func (v *View) Docs() *doctable.DocTable { return v.e.docs }

func (v *View) MaxDocID() index.DocID { return v.e.docs.MaxDocID() }

func (v *View) NumDocs() int { return v.e.docs.NumDocs() }

// AvgDocLen is the mean token count of live documents.
func (v *View) AvgDocLen() float64 {
	n := v.e.docs.NumDocs()
	if n == 0 {
		return 0
	}
	return float64(v.e.totalLen) / float64(n)
}

// Term returns the inverted index of term, or nil.
func (v *View) Term(term string) *index.InvertedIndex {
	return v.e.terms.Get(strings.ToLower(term))
}

// Expand lists up to limit terms starting with prefix.
func (v *View) Expand(prefix string, limit int) []string {
	return v.e.terms.Expand(strings.ToLower(prefix), limit)
}

// NumericRanges returns the ranges of field that may hold values in
// [min, max].
func (v *View) NumericRanges(field string, min, max float64) ([]*index.NumericRange, error) {
	tree := v.e.numeric[strings.ToLower(field)]
	if tree == nil {
		return nil, apperrors.Newf(apperrors.ErrUnknownField, "no numeric field %q", field)
	}
	return tree.Find(min, max), nil
}

// GCStats summarizes one garbage collection pass.
type GCStats struct {
	index.RepairStats
	SlotsReclaimed int
	CycleCompleted bool
	PendingDeletes uint64
}

// RunGC repairs up to GCScanSize term indexes against the deleted ids known
// at the start of the current cycle. When the term walk wraps, numeric
// trees are repaired too and the collected ids are forgotten.
func (e *Engine) RunGC() GCStats {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	var stats GCStats
	stats.SlotsReclaimed = e.docs.Reclaim()
	if e.gcSnapshot == nil {
		snap := e.docs.DeletedIDs()
		if snap.IsEmpty() {
			return stats
		}
		e.gcSnapshot = snap
		e.gcCursor = 0
	}
	snap := e.gcSnapshot
	isDeleted := func(id index.DocID) bool { return snap.Contains(uint64(id)) }

	before := e.gcCursor
	next, wrapped, rs := e.terms.Repair(e.gcCursor, e.cfg.GCScanSize, isDeleted)
	stats.RepairStats = rs
	e.gcCursor = next

	if wrapped {
		names := make([]string, 0, len(e.numeric))
		for name := range e.numeric {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ns := e.numeric[name].Repair(isDeleted)
			stats.BlocksScanned += ns.BlocksScanned
			stats.BlocksRemoved += ns.BlocksRemoved
			stats.EntriesRemoved += ns.EntriesRemoved
			stats.BytesCollected += ns.BytesCollected
		}
		e.docs.ClearDeleted(snap)
		e.gcSnapshot = nil
		stats.CycleCompleted = true
	}
	stats.PendingDeletes = e.docs.DeletedIDs().GetCardinality()

	if e.metrics != nil {
		e.metrics.GCRunsTotal.Inc()
		e.metrics.GCEntriesRemoved.Add(float64(stats.EntriesRemoved))
		e.metrics.GCBytesCollected.Add(float64(stats.BytesCollected))
		e.metrics.GCDuration.Observe(time.Since(start).Seconds())
		e.metrics.NumTerms.Set(float64(e.terms.NumTerms()))
		e.metrics.IndexMemoryBytes.Set(float64(e.memoryUsageLocked()))
	}
	e.logger.Debug("gc pass",
		"cursor_from", before,
		"cursor_to", next,
		"entries_removed", stats.EntriesRemoved,
		"bytes_collected", stats.BytesCollected,
		"cycle_completed", stats.CycleCompleted,
	)
	return stats
}

// StartGCLoop runs RunGC every GCInterval until ctx is cancelled.
func (e *Engine) StartGCLoop(ctx context.Context) {
	if e.cfg.GCPolicy == config.GCPolicyOff || e.cfg.GCInterval <= 0 {
		e.logger.Info("index gc disabled")
		return
	}
	ticker := time.NewTicker(e.cfg.GCInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("gc loop stopping")
				return
			case <-ticker.C:
				stats := e.RunGC()
				if stats.CycleCompleted {
					e.logger.Info("gc cycle completed",
						"entries_removed", stats.EntriesRemoved,
						"bytes_collected", stats.BytesCollected,
						"pending_deletes", stats.PendingDeletes,
					)
				}
			}
		}
	}()
}

// Stats is a point-in-time summary of the engine.
type Stats struct {
	NumDocs     int
	MaxDocID    index.DocID
	NumTerms    int
	MemoryBytes int
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		NumDocs:     e.docs.NumDocs(),
		MaxDocID:    e.docs.MaxDocID(),
		NumTerms:    e.terms.NumTerms(),
		MemoryBytes: e.memoryUsageLocked(),
	}
}

func (e *Engine) memoryUsageLocked() int {
	n := e.terms.MemoryUsage() + e.docs.MemoryUsage()
	for _, tree := range e.numeric {
		n += tree.MemoryUsage()
	}
	return n
}

// Ping reports whether a read view can be taken before ctx expires.
func (e *Engine) Ping(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.mu.RLock()
		e.mu.RUnlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine lock unavailable: %w", ctx.Err())
	}
}

// Close finishes the pending garbage collection cycle.
func (e *Engine) Close() error {
	for e.pendingGC() > 0 {
		if e.RunGC().CycleCompleted {
			break
		}
	}
	st := e.Stats()
	e.logger.Info("engine closed", "docs", st.NumDocs, "terms", st.NumTerms)
	return nil
}

func (e *Engine) pendingGC() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.gcSnapshot != nil {
		return e.gcSnapshot.GetCardinality()
	}
	return e.docs.DeletedIDs().GetCardinality()
}
