// Package executor evaluates query trees against the indexer engine.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/tracing"
)

// timeoutCheckInterval is how many reads pass between deadline checks.
const timeoutCheckInterval = 64

type Executor struct {
	engine  *indexer.Engine
	cfg     config.SearchConfig
	pool    *semaphore.Weighted
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Executor. m may be nil.
func New(engine *indexer.Engine, cfg config.SearchConfig, m *metrics.Metrics) *Executor {
	size := cfg.SearchPoolSize
	if size <= 0 {
		size = 1
	}
	return &Executor{
		engine:  engine,
		cfg:     cfg,
		pool:    semaphore.NewWeighted(int64(size)),
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Execute runs req. At most SearchPoolSize queries evaluate at once; the
// rest wait for a slot or for ctx. A query running past QueryTimeout is
// aborted and, depending on TimeoutPolicy, returns its partial results or
// ErrTimeout.
func (e *Executor) Execute(ctx context.Context, req *Request) (*SearchResult, error) {
	start := time.Now()
	if req == nil || req.Query == nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "query is required")
	}
	requestID, ok := logger.RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}
	log := e.logger.With("request_id", requestID)

	scorer, err := ranker.ForName(req.Scorer)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, err.Error())
	}
	offset, limit := e.window(req)

	if err := e.pool.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for search slot: %w", err)
	}
	defer e.pool.Release(1)

	qctx := ctx
	if e.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, e.cfg.QueryTimeout)
		defer cancel()
	}

	qctx, span := tracing.Start(qctx, "search")
	result := &SearchResult{RequestID: requestID}
	err = e.engine.View(func(v *indexer.View) error {
		return e.run(qctx, v, req, scorer, offset, limit, result)
	})
	result.Took = time.Since(start)
	span.End()
	span.Log(ctx, log, slog.LevelDebug)

	if err == nil && result.TimedOut {
		if e.metrics != nil {
			e.metrics.QueryTimeoutsTotal.WithLabelValues(e.cfg.TimeoutPolicy).Inc()
		}
		if e.cfg.TimeoutPolicy == config.TimeoutPolicyFail {
			err = apperrors.Newf(apperrors.ErrTimeout, "query exceeded %s", e.cfg.QueryTimeout)
		}
	}
	e.observe(result, err)
	if err != nil {
		log.Warn("query failed", "error", err, "duration", result.Took)
		return nil, err
	}

	log.Info("query executed",
		"hits", result.TotalHits,
		"results", len(result.Results),
		"timed_out", result.TimedOut,
		"duration", result.Took,
	)
	return result, nil
}

func (e *Executor) window(req *Request) (offset, limit int) {
	offset, limit = max(req.Offset, 0), req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxResults > 0 && offset+limit > e.cfg.MaxResults {
		limit = max(e.cfg.MaxResults-offset, 0)
	}
	return offset, limit
}

func (e *Executor) run(ctx context.Context, v *indexer.View, req *Request, scorer ranker.Scorer, offset, limit int, out *SearchResult) error {
	better := merger.ByScore
	if len(req.SortBy) > 0 {
		keys := make([]sortable.Key, len(req.SortBy))
		for i, k := range req.SortBy {
			idx := v.Schema().SortIndex(k.Field)
			if idx < 0 {
				return apperrors.Newf(apperrors.ErrUnknownField, "field %q is not sortable", k.Field)
			}
			keys[i] = sortable.Key{Index: idx, Ascending: k.Ascending}
		}
		better = merger.BySortKeys(keys)
	}

	_, planSpan := tracing.Start(ctx, "plan")
	p := &planner{
		view:          v,
		scorer:        scorer,
		maxExpansions: e.cfg.MaxPrefixExpansions,
		minPrefix:     e.cfg.MinTermPrefix,
	}
	it, err := p.build(req.Query)
	planSpan.End()
	if err != nil {
		return err
	}
	defer it.Free()

	_, iterSpan := tracing.Start(ctx, "iterate")
	var reads int
	defer func() {
		iterSpan.Set("reads", reads)
		iterSpan.Set("hits", out.TotalHits)
		iterSpan.End()
	}()

	want := offset + limit
	// Large unsorted windows skip the heap and keep doc id order.
	unsorted := len(req.SortBy) == 0 && e.cfg.MaxResultsToUnsortedMode > 0 && want > e.cfg.MaxResultsToUnsortedMode
	var (
		top  *merger.TopK
		hits []ranker.ScoredDoc
	)
	if !unsorted && want > 0 {
		top = merger.New(want, better)
	}
	stats := ranker.IndexStats{NumDocs: v.NumDocs(), AvgDocLen: v.AvgDocLen()}

	for {
		reads++
		if reads%timeoutCheckInterval == 0 && ctx.Err() != nil {
			it.Abort()
			out.TimedOut = true
		}
		res, st := it.Read()
		if st == index.StatusEOF {
			break
		}
		if st != index.StatusOK {
			continue
		}
		md := v.Docs().Get(res.DocID)
		if md == nil {
			continue
		}
		out.TotalHits++
		if top == nil && len(hits) >= want {
			continue
		}
		doc := ranker.ScoredDoc{
			ID:         md.ID,
			Key:        string(md.Key),
			Score:      scorer.Score(res, md, stats),
			Payload:    md.Payload,
			SortVector: md.SortVector,
		}
		if top != nil {
			top.Push(doc)
		} else {
			hits = append(hits, doc)
		}
	}

	if top != nil {
		hits = top.Results()
	}
	if offset >= len(hits) {
		out.Results = []ranker.ScoredDoc{}
		return nil
	}
	out.Results = hits[offset:]
	return nil
}

func (e *Executor) observe(result *SearchResult, err error) {
	if e.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case err != nil && apperrors.Is(err, apperrors.ErrTimeout):
		resultType = "timeout"
	case err != nil:
		resultType = "error"
	case result.TimedOut:
		resultType = "timeout"
	case result.TotalHits == 0:
		resultType = "zero_result"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchLatency.WithLabelValues("miss").Observe(result.Took.Seconds())
	if err == nil {
		e.metrics.SearchResultsCount.Observe(float64(result.TotalHits))
	}
}
