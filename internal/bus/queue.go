// Package bus decouples feed arrival from store writes.
package bus

import "sync"

// Queue is an unbounded FIFO between one feed producer and one drain
// consumer. Push never blocks and there is no backpressure: a consumer that
// falls behind for long lets the queue grow without limit, which is an
// accepted property of the design.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewQueue allocates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends an item without blocking.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Pop removes the oldest item. The second return is false when the queue is
// empty, which ends one drain cycle; it is not an error.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}

	return item, true
}

// Len reports the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
