// Package cache stores executed search results in Redis, keyed by a
// canonical fingerprint of the request, and collapses concurrent identical
// queries with singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the byte store behind the cache. *redis.Client implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Guard routes store calls through a circuit breaker so an unreachable
// Redis is skipped instead of stalling every query. Misses are not
// failures.
func Guard(store Store, cfg resilience.CircuitBreakerConfig) Store {
	cfg.IsFailure = func(err error) bool {
		return err != nil && !errors.Is(err, pkgredis.ErrMiss)
	}
	return &guardedStore{store: store, cb: resilience.NewCircuitBreaker("query-cache", cfg)}
}

type guardedStore struct {
	store Store
	cb    *resilience.CircuitBreaker
}

func (g *guardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := g.cb.Execute(func() error {
		var err error
		data, err = g.store.Get(ctx, key)
		return err
	})
	return data, err
}

func (g *guardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.cb.Execute(func() error { return g.store.Set(ctx, key, value, ttl) })
}

// DeletePrefix bypasses the breaker: invalidation must reach the store
// even while reads are being shed.
func (g *guardedStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	return g.store.DeletePrefix(ctx, prefix)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, req *executor.Request) (*executor.SearchResult, bool) {
	key := BuildKey(req)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return &result, true
}

// Set stores result. Timed out results are partial and never cached.
func (c *QueryCache) Set(ctx context.Context, req *executor.Request, result *executor.SearchResult) {
	if result.TimedOut {
		return
	}
	key := BuildKey(req)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result of req or computes it once for all
// concurrent callers. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req *executor.Request,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	start := time.Now()
	if result, ok := c.Get(ctx, req); ok {
		if c.metrics != nil {
			c.metrics.SearchLatency.WithLabelValues("hit").Observe(time.Since(start).Seconds())
		}
		return result, true, nil
	}
	key := BuildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.DeletePrefix(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey hashes the canonical form of req. Requests that differ only in
// term case, field order or an explicit unit weight share a key.
func BuildKey(req *executor.Request) string {
	var sb strings.Builder
	writeNode(&sb, req.Query)
	fmt.Fprintf(&sb, "|offset=%d|limit=%d|scorer=%s", req.Offset, req.Limit, strings.ToUpper(req.Scorer))
	for _, k := range req.SortBy {
		fmt.Fprintf(&sb, "|sort=%s:%t", strings.ToLower(k.Field), k.Ascending)
	}
	hash := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func writeNode(sb *strings.Builder, n *executor.QueryNode) {
	if n == nil {
		sb.WriteString("()")
		return
	}
	sb.WriteByte('(')
	sb.WriteString(string(n.Type))
	switch n.Type {
	case executor.NodeTerm, executor.NodePrefix:
		sb.WriteString(" " + strings.ToLower(n.Term))
	case executor.NodeNumeric:
		fmt.Fprintf(sb, " %s %s%s,%s%s", strings.ToLower(n.Field),
			bound(n.ExclusiveMin, "(", "["), strconv.FormatFloat(n.Min, 'g', -1, 64),
			strconv.FormatFloat(n.Max, 'g', -1, 64), bound(n.ExclusiveMax, ")", "]"))
	case executor.NodeIntersect:
		if n.Slop != nil {
			fmt.Fprintf(sb, " slop=%d inorder=%t", *n.Slop, n.InOrder)
		}
	}
	if len(n.Fields) > 0 {
		fields := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = strings.ToLower(f)
		}
		sort.Strings(fields)
		sb.WriteString(" @" + strings.Join(fields, ","))
	}
	if n.Weight != 0 && n.Weight != 1 {
		sb.WriteString(" ^" + strconv.FormatFloat(n.Weight, 'g', -1, 64))
	}

	// Child order is kept: proximity scoring depends on it.
	for _, child := range n.Children {
		writeNode(sb, child)
	}
	sb.WriteByte(')')
}

func bound(exclusive bool, open, closed string) string {
	if exclusive {
		return open
	}
	return closed
}
