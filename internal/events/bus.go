package events

import (
	"context"
	"log"
	"sync"

	"github.com/plateiq/pkg/models"
)

// Handler processes a single event. Handler errors are logged by the bus
// and never propagated to the publisher.
type Handler interface {
	Handle(ctx context.Context, event models.Event) error
	Name() string
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	ID string
	Fn func(ctx context.Context, event models.Event) error
}

func (h HandlerFunc) Handle(ctx context.Context, event models.Event) error {
	return h.Fn(ctx, event)
}

func (h HandlerFunc) Name() string {
	return h.ID
}

// Bus routes typed events to subscribed handlers.
type Bus interface {
	Publish(ctx context.Context, event models.Event)
	Subscribe(eventType models.EventType, handler Handler)
}

// MemoryBus is an in-process bus with synchronous, registration-order
// delivery. Deterministic delivery is what lets the orchestrator's cross-
// component reactions be tested without sleeps or polling.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[models.EventType][]Handler
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[models.EventType][]Handler),
	}
}

// Subscribe registers a handler for an event type. Registration order is
// delivery order.
func (b *MemoryBus) Subscribe(eventType models.EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to every handler subscribed to its type,
// synchronously, in registration order.
func (b *MemoryBus) Publish(ctx context.Context, event models.Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			log.Printf("Handler %s failed on event %s (%s): %v", h.Name(), event.ID, event.Type, err)
		}
	}
}
