package events

import (
	"context"
	"errors"
	"sync"

	"github.com/julianstephens/studyloop/internal/logger"
)

// Emit delivers ev and logs a failure instead of returning it.
func Emit(ctx context.Context, sink Sink, ev Event) {
	if sink == nil {
		return
	}
	if err := sink.Emit(ctx, ev); err != nil {
		logger.Warn("Failed to deliver event", "kind", ev.Kind(), "user", ev.User(), "error", err)
	}
}

// LogSink writes events to the application log.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, ev Event) error {
	logger.Info(ev.Title(), "kind", ev.Kind(), "user", ev.User(), "message", ev.Message())
	return nil
}

type Notifier interface {
	Notify(ctx context.Context, title, text string) error
}

// TraySink shows events as desktop notifications.
type TraySink struct {
	Notifier Notifier
}

func (s TraySink) Emit(ctx context.Context, ev Event) error {
	return s.Notifier.Notify(ctx, ev.Title(), ev.Message())
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in emission order.
func (r *Recorder) Kinds() []string {
	var kinds []string
	for _, ev := range r.Events() {
		kinds = append(kinds, ev.Kind())
	}
	return kinds
}
