// Package tracing records nested timed spans through a context and logs the
// finished tree with slog.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
)

type spanKey struct{}

// Span is one timed phase of a trace.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	attrs    []slog.Attr
	children []*Span
}

// Start opens a span. It becomes a child of the span already in ctx, or a
// root keyed by the context's request id when there is none.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		s.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	} else if id, ok := logger.RequestID(ctx); ok {
		s.TraceID = id
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

func (s *Span) End() {
	s.Duration = time.Since(s.Start)
}

func (s *Span) Set(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes the span and its descendants depth first at level.
func (s *Span) Log(ctx context.Context, l *slog.Logger, level slog.Level) {
	if !l.Enabled(ctx, level) {
		return
	}
	s.log(ctx, l, level, 0)
}

func (s *Span) log(ctx context.Context, l *slog.Logger, level slog.Level, depth int) {
	s.mu.Lock()
	attrs := append([]slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span", s.Name),
		slog.Duration("duration", s.Duration),
		slog.Int("depth", depth),
	}, s.attrs...)
	children := s.children
	s.mu.Unlock()

	l.LogAttrs(ctx, level, "span", attrs...)
	for _, c := range children {
		c.log(ctx, l, level, depth+1)
	}
}
