package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/resilience"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
	gets int
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.fail {
		return nil, errors.New("connection refused")
	}
	v, ok := s.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func request(term string) *executor.Request {
	return &executor.Request{Query: executor.Term(term), Limit: 10}
}

func TestGetOrCompute(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, metrics.New(prometheus.NewRegistry()))
	ctx := context.Background()

	computed := 0
	compute := func() (*executor.SearchResult, error) {
		computed++
		return &executor.SearchResult{TotalHits: 1, Results: []ranker.ScoredDoc{{Key: "a", Score: 2}}}, nil
	}

	res, hit, err := c.GetOrCompute(ctx, request("hello"), compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, res.TotalHits)

	res, hit, err = c.GetOrCompute(ctx, request("HELLO"), compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "a", res.Results[0].Key)
	assert.Equal(t, 1, computed)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	require.NoError(t, c.Invalidate(ctx))
	_, hit, err = c.GetOrCompute(ctx, request("hello"), compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, computed)
}

func TestTimedOutResultsAreNotCached(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, nil)
	c.Set(context.Background(), request("a"), &executor.SearchResult{TimedOut: true})
	assert.Empty(t, store.data)
}

func TestStoreErrorsCountAsMisses(t *testing.T) {
	store := newMemStore()
	store.fail = true
	c := New(store, time.Minute, nil)
	_, ok := c.Get(context.Background(), request("a"))
	assert.False(t, ok)
	_, misses := c.Stats()
	assert.Equal(t, int64(1), misses)
}

func TestComputeErrorsPropagate(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), request("a"), func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestSingleflight(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return &executor.SearchResult{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), request("same"), compute)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuildKey(t *testing.T) {
	slop := 2
	base := &executor.Request{Query: executor.Intersect(executor.Term("Hello", "Title", "body"), executor.Term("world"))}
	same := &executor.Request{Query: executor.Intersect(executor.Term("hello", "body", "title"), &executor.QueryNode{Type: executor.NodeTerm, Term: "WORLD", Weight: 1})}
	assert.Equal(t, BuildKey(base), BuildKey(same))
	assert.True(t, strings.HasPrefix(BuildKey(base), keyPrefix))

	for _, other := range []*executor.Request{
		{Query: executor.Intersect(executor.Term("world"), executor.Term("hello", "title", "body"))},
		{Query: executor.Union(executor.Term("hello", "title", "body"), executor.Term("world"))},
		{Query: executor.Intersect(executor.Term("hello", "title", "body"), executor.Term("world")), Limit: 5},
		{Query: &executor.QueryNode{Type: executor.NodeIntersect, Slop: &slop, Children: base.Query.Children}},
		{Query: executor.Intersect(executor.Term("hello", "title", "body"), executor.Term("world")), SortBy: []executor.SortKey{{Field: "price"}}},
	} {
		assert.NotEqual(t, BuildKey(base), BuildKey(other))
	}

	excl := &executor.Request{Query: &executor.QueryNode{Type: executor.NodeNumeric, Field: "price", Min: 1, Max: 2, ExclusiveMin: true}}
	incl := &executor.Request{Query: executor.Numeric("price", 1, 2)}
	assert.NotEqual(t, BuildKey(excl), BuildKey(incl))
}

func TestGuardShedsFailingStore(t *testing.T) {
	store := newMemStore()
	guarded := Guard(store, resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	c := New(guarded, time.Minute, nil)
	ctx := context.Background()

	// misses do not trip the breaker
	for i := 0; i < 3; i++ {
		_, ok := c.Get(ctx, request("a"))
		assert.False(t, ok)
	}
	assert.Equal(t, 3, store.gets)

	store.fail = true
	for i := 0; i < 5; i++ {
		c.Get(ctx, request("a"))
	}
	assert.Equal(t, 5, store.gets)

	_, err := guarded.Get(ctx, "k")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	require.NoError(t, c.Invalidate(ctx))
}
