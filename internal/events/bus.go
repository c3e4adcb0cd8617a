package events

import (
	"sync"

	"websiter-server/internal/domain"
)

// Handler receives committed change events. Handlers must not block; slow
// consumers should hand off to their own queue (the websocket manager does).
type Handler func(event domain.ChangeEvent)

// Bus carries change events from the services to whoever fans them out.
type Bus interface {
	Publish(event domain.ChangeEvent) error
	Subscribe(fn Handler) (unsubscribe func())
	Close() error
}

// MemoryBus is the single-instance bus: events are delivered in-process.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	next     int
	closed   bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[int]Handler),
	}
}

func (b *MemoryBus) Publish(event domain.ChangeEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	handlers := make([]Handler, 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
	return nil
}

func (b *MemoryBus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.handlers = make(map[int]Handler)
	b.mu.Unlock()
	return nil
}
