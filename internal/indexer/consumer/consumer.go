// Package consumer reads document events from Kafka and applies them to the
// indexer engine.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/resilience"
)

const (
	OpIndex  = "index"
	OpDelete = "delete"

	invalidateTimeout = 2 * time.Second
)

var invalidateRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond}

// Event is the message published on the document ingest topic.
type Event struct {
	Op       string            `json:"op"`
	Replace  bool              `json:"replace,omitempty"`
	Key      string            `json:"key,omitempty"`
	Document *indexer.Document `json:"document,omitempty"`
}

// Writer is the part of the engine the consumer mutates.
type Writer interface {
	IndexDocument(doc *indexer.Document, replace bool) (index.DocID, error)
	DeleteDocument(key string) error
}

// Invalidator drops cached query results after the index changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that applies each event to w.
// Events rejected by the engine (bad input, duplicate or missing keys) are
// logged and committed; any other failure leaves the message uncommitted.
// inv and m may be nil.
func HandleMessage(w Writer, inv Invalidator, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	count := func(op, status string) {
		if m != nil {
			m.ConsumerMessages.WithLabelValues(op, status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			count("unknown", "malformed")
			return nil
		}

		switch event.Op {
		case OpIndex:
			if event.Document == nil {
				logger.Error("index event without document", "key", string(key))
				count(event.Op, "malformed")
				return nil
			}
			id, err := w.IndexDocument(event.Document, event.Replace)
			if err != nil {
				return reject(logger, count, event.Op, event.Document.Key, err)
			}
			logger.Debug("document indexed", "key", event.Document.Key, "doc_id", id)
		case OpDelete:
			if err := w.DeleteDocument(event.Key); err != nil {
				return reject(logger, count, event.Op, event.Key, err)
			}
			logger.Debug("document deleted", "key", event.Key)
		default:
			logger.Error("unknown event op", "op", event.Op, "key", string(key))
			count(event.Op, "malformed")
			return nil
		}

		count(event.Op, "ok")
		if inv != nil {
			err := resilience.Retry(ctx, "cache invalidate", invalidateRetry, func() error {
				return resilience.WithTimeout(ctx, invalidateTimeout, "cache invalidate", inv.Invalidate)
			})
			if err != nil {
				logger.Warn("cache invalidation failed", "error", err)
			}
		}
		return nil
	}
}

func reject(logger *slog.Logger, count func(op, status string), op, key string, err error) error {
	code := apperrors.Code(err)
	switch code {
	case "internal", "timeout":
		count(op, "error")
		return fmt.Errorf("%s document %s: %w", op, key, err)
	}
	logger.Warn("document event rejected", "op", op, "key", key, "code", code, "error", err)
	count(op, code)
	return nil
}
