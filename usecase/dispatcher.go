package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/fastygo/teamtasks/domain"
)

// EventHandler reacts to one lifecycle event. Returning an error aborts the operation
// that published the event.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventPublisher is what use cases depend on to announce lifecycle transitions.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Dispatcher is a synchronous observer registry keyed by event kind. Handlers run in
// registration order on the caller's goroutine, so they share its transaction.
type Dispatcher struct {
	handlers map[domain.EventKind][]EventHandler
	mu       sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domain.EventKind][]EventHandler),
	}
}

// Subscribe registers handler for each of kinds.
func (d *Dispatcher) Subscribe(handler EventHandler, kinds ...domain.EventKind) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, kind := range kinds {
		d.handlers[kind] = append(d.handlers[kind], handler)
	}
}

// Publish delivers event to its subscribers, stopping at the first failure.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler(nil), d.handlers[event.Kind]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("event %s: %w", event.Kind, err)
		}
	}
	return nil
}

// Publish is a nil-safe helper for use cases with an optional publisher.
func Publish(ctx context.Context, p EventPublisher, event domain.Event) error {
	if p == nil {
		return nil
	}
	return p.Publish(ctx, event)
}
