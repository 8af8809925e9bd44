package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return nil
}

type failingWriter struct{}

func (failingWriter) IndexDocument(*indexer.Document, bool) (index.DocID, error) {
	return 0, errors.New("disk on fire")
}

func (failingWriter) DeleteDocument(string) error { return errors.New("disk on fire") }

func encode(t *testing.T, ev Event) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestHandleMessage(t *testing.T) {
	sch, err := schema.New("idx", schema.Options{}, schema.Field{Name: "body", Type: schema.TypeText})
	require.NoError(t, err)
	engine := indexer.NewEngine(config.Default().Indexer, sch, nil)
	inv := &countingInvalidator{}
	h := HandleMessage(engine, inv, metrics.New(prometheus.NewRegistry()))
	ctx := context.Background()

	doc := &indexer.Document{Key: "a", Text: []indexer.TextField{{Field: "body", Tokens: []string{"hello"}}}}
	require.NoError(t, h(ctx, []byte("a"), encode(t, Event{Op: OpIndex, Document: doc})))
	assert.Equal(t, 1, engine.Stats().NumDocs)
	assert.Equal(t, 1, inv.n)

	// duplicates and unknown keys are rejected but committed
	assert.NoError(t, h(ctx, []byte("a"), encode(t, Event{Op: OpIndex, Document: doc})))
	assert.NoError(t, h(ctx, []byte("z"), encode(t, Event{Op: OpDelete, Key: "z"})))
	assert.NoError(t, h(ctx, nil, []byte("{not json")))
	assert.NoError(t, h(ctx, nil, encode(t, Event{Op: "upsert"})))
	assert.Equal(t, 1, inv.n)

	require.NoError(t, h(ctx, []byte("a"), encode(t, Event{Op: OpDelete, Key: "a"})))
	assert.Equal(t, 0, engine.Stats().NumDocs)
	assert.Equal(t, 2, inv.n)
}

func TestHandleMessageRetriesInternalErrors(t *testing.T) {
	h := HandleMessage(failingWriter{}, nil, nil)
	err := h(context.Background(), nil, encode(t, Event{Op: OpDelete, Key: "a"}))
	assert.Error(t, err)
}

type flakyInvalidator struct{ calls int }

func (f *flakyInvalidator) Invalidate(context.Context) error {
	f.calls++
	if f.calls == 1 {
		return errors.New("connection reset")
	}
	return nil
}

func TestHandleMessageRetriesInvalidation(t *testing.T) {
	sch, err := schema.New("idx", schema.Options{}, schema.Field{Name: "body", Type: schema.TypeText})
	require.NoError(t, err)
	inv := &flakyInvalidator{}
	h := HandleMessage(indexer.NewEngine(config.Default().Indexer, sch, nil), inv, nil)

	doc := &indexer.Document{Key: "a", Text: []indexer.TextField{{Field: "body", Tokens: []string{"x"}}}}
	require.NoError(t, h(context.Background(), nil, encode(t, Event{Op: OpIndex, Document: doc})))
	assert.Equal(t, 2, inv.calls)
}
