// Package bus is a small typed in-process event bus. Services publish
// domain notifications; interested workers subscribe with their own
// buffered channel. Publishing never blocks: a subscriber whose buffer is
// full misses the event.
package bus

import "sync"

// Topic is a fan-out channel group for one event type.
type Topic[T any] struct {
	mu   sync.RWMutex
	subs map[int]chan T
	next int
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber with the given buffer size.
// Returns the receive channel and an unsubscribe function that closes it.
func (t *Topic[T]) Subscribe(buffer int) (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++

	ch := make(chan T, buffer)
	t.subs[id] = ch

	unsubscribe := func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		if sub, ok := t.subs[id]; ok {
			close(sub)
			delete(t.subs, id)
		}
	}

	return ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking.
func (t *Topic[T]) Publish(event T) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (t *Topic[T]) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.subs)
}
