// internal/hooks/registry.go
package hooks

import (
	"context"
	"log"

	"threadpost/internal/models"
)

// Event identifies a message-lifecycle transition.
type Event string

const (
	EventMessageCreated Event = "message.created"
	EventMessageEdited  Event = "message.edited"
	EventMessageRead    Event = "message.read"
	EventMessageDeleted Event = "message.deleted"
)

// Payload carries the state a handler needs. Message is the post-transition
// record; OldContent is set only for edits.
type Payload struct {
	Message    *models.Message
	Sender     *models.User
	OldContent string
	EditReason *string
}

// Handler reacts to a lifecycle event. Handlers must not assume ordering
// relative to handlers registered for other events.
type Handler interface {
	Name() string
	Handle(ctx context.Context, event Event, payload *Payload) error
}

// Registry dispatches lifecycle events to registered handlers in registration
// order. Handlers are best-effort: a failure is logged and the remaining
// handlers still run, and the primary write that triggered the event is never
// rolled back.
type Registry struct {
	handlers map[Event][]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Event][]Handler),
	}
}

// Register attaches a handler to one or more events. Registration order is
// dispatch order. Not safe to call concurrently with Fire; register all
// handlers during startup.
func (r *Registry) Register(handler Handler, events ...Event) {
	for _, event := range events {
		r.handlers[event] = append(r.handlers[event], handler)
	}
}

// Fire dispatches an event to its handlers. Returns the number of handlers
// that failed, mainly for tests and metrics.
func (r *Registry) Fire(ctx context.Context, event Event, payload *Payload) int {
	failed := 0
	for _, handler := range r.handlers[event] {
		if err := handler.Handle(ctx, event, payload); err != nil {
			log.Printf("hook %s failed on %s: %v", handler.Name(), event, err)
			failed++
		}
	}
	return failed
}
