package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/pkg/types"
)

// Sink receives published events. autonomy.Publisher has the same shape.
type Sink interface {
	Publish(ctx context.Context, ev types.Event)
}

// Fanout delivers every event to each registered sink in turn. A sink that
// panics is logged and skipped; the others still receive the event.
type Fanout struct {
	mu     sync.RWMutex
	sinks  []namedSink
	logger zerolog.Logger
}

type namedSink struct {
	name string
	sink Sink
}

// NewFanout creates an empty fan-out.
func NewFanout(logger zerolog.Logger) *Fanout {
	return &Fanout{logger: logger.With().Str("component", "broadcast").Logger()}
}

// Add registers a sink under name (used in logs).
func (f *Fanout) Add(name string, s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, namedSink{name: name, sink: s})
}

// Publish implements Sink.
func (f *Fanout) Publish(ctx context.Context, ev types.Event) {
	f.mu.RLock()
	sinks := append([]namedSink(nil), f.sinks...)
	f.mu.RUnlock()

	for _, s := range sinks {
		f.deliver(ctx, s, ev)
	}
}

func (f *Fanout) deliver(ctx context.Context, s namedSink, ev types.Event) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Interface("panic", r).Str("sink", s.name).Str("event", ev.ID).Msg("sink panicked")
		}
	}()
	s.sink.Publish(ctx, ev)
}

// LogSink writes each event to a logger.
type LogSink struct {
	Logger zerolog.Logger
}

// Publish implements Sink.
func (l LogSink) Publish(_ context.Context, ev types.Event) {
	l.Logger.Info().
		Str("type", string(ev.Type)).
		Str("mood", string(ev.Mood)).
		Str("trigger", ev.Trigger).
		Str("text", ev.Text).
		Msg("event")
}
