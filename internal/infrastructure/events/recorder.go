package events

import (
	"context"
	"sync"

	"github.com/sixteenfood/qlsx/internal/domain/event"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

// Recorder keeps dispatched events in memory and logs them. Delivery to the
// outside world (messaging, email) hangs off the same port and is out of
// scope here.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
	log    *logger.Logger
}

var _ event.Dispatcher = (*Recorder)(nil)

// NewRecorder builds a recorder.
func NewRecorder(log *logger.Logger) *Recorder {
	return &Recorder{log: log}
}

// Dispatch stores the event. Never blocks and never fails the caller.
func (r *Recorder) Dispatch(_ context.Context, e event.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	r.log.Debug().
		Str("type", e.Type).
		Str("product", e.ProductID).
		Str("message", e.Message).
		Msg("domain event")
}

// Events returns a copy of everything dispatched so far.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// ByType filters recorded events.
func (r *Recorder) ByType(eventType string) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
