package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler processes domain events.
type Handler interface {
	// Handles returns the event types the handler subscribes to.
	Handles() []string

	// Handle processes the given event.
	Handle(event Event) error
}

// Bus is a synchronous in-process event bus. Handlers run on the
// publisher's goroutine; a handler error is logged and does not stop
// delivery to the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for every event type it declares.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range h.Handles() {
		b.handlers[t] = append(b.handlers[t], h)
	}
}

// Publish delivers the event to all subscribed handlers.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}
