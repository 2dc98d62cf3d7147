// Package eventbus is a small in-process pub/sub bus used to observe the
// message-processing lifecycle without coupling components to a logger.
package eventbus

import (
	"sync"
	"time"
)

// Bus is an in-process pub/sub event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish sends an event to all subscribers of the topic.
// Handlers run synchronously in registration order.
func (b *Bus) Publish(topic Topic, payload any) {
	b.dispatch(topic, payload, false)
}

// PublishAsync sends an event to all subscribers asynchronously.
func (b *Bus) PublishAsync(topic Topic, payload any) {
	b.dispatch(topic, payload, true)
}

func (b *Bus) dispatch(topic Topic, payload any, async bool) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	event := Event{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, h := range handlers {
		if async {
			go h(event)
		} else {
			h(event)
		}
	}
}
