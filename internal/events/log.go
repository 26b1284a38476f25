// Package events is the engine's append-only observation log. Events are kept
// in a bounded in-memory ring for the operator API and fanned out to
// pluggable sinks (slog, Redis pub/sub, the WebSocket hub, notifiers) for
// off-engine monitoring. The log is observation only; the engine never reads
// it back to make decisions.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/metrics"
)

// Sink receives every appended event. Sink failures are logged and dropped;
// monitoring must never abort an operation.
type Sink interface {
	Deliver(ctx context.Context, ev domain.Event) error
	Name() string
}

// defaultCapacity bounds the in-memory ring.
const defaultCapacity = 1024

// Log is the append-only event log.
type Log struct {
	mu      sync.RWMutex
	entries []domain.Event
	cap     int
	sinks   []Sink
	logger  *slog.Logger
}

// NewLog creates a Log retaining the most recent capacity events (the default
// when capacity <= 0).
func NewLog(capacity int, logger *slog.Logger) *Log {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Log{
		cap:    capacity,
		logger: logger.With(slog.String("component", "events")),
	}
}

// AddSink registers a delivery sink. Not safe to call after Append has begun
// from concurrent goroutines; wire sinks at startup.
func (l *Log) AddSink(s Sink) {
	l.sinks = append(l.sinks, s)
}

// Append records one event and fans it out to every sink.
func (l *Log) Append(ctx context.Context, typ domain.EventType, fields map[string]string) domain.Event {
	ev := domain.Event{
		ID:     uuid.New().String(),
		Type:   typ,
		At:     time.Now().UTC(),
		Fields: fields,
	}

	l.mu.Lock()
	l.entries = append(l.entries, ev)
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	l.mu.Unlock()

	metrics.Events.WithLabelValues(string(typ)).Inc()

	for _, s := range l.sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			l.logger.WarnContext(ctx, "event sink delivery failed",
				slog.String("sink", s.Name()),
				slog.String("event", string(typ)),
				slog.String("error", err.Error()),
			)
		}
	}
	return ev
}

// Recent returns up to n most recent events, newest last.
func (l *Log) Recent(n int) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.Event, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// SlogSink writes every event to the structured log.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a SlogSink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Deliver logs the event at info level.
func (s *SlogSink) Deliver(ctx context.Context, ev domain.Event) error {
	attrs := []any{
		slog.String("event_id", ev.ID),
		slog.String("type", string(ev.Type)),
	}
	for k, v := range ev.Fields {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.InfoContext(ctx, "engine event", attrs...)
	return nil
}

// Name returns the sink identifier.
func (s *SlogSink) Name() string { return "slog" }
