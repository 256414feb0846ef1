// File: internal/concurrency/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
)

// BoundedQueue is a fixed-capacity FIFO. Producers never block: a push at
// capacity fails. Consumers block in Pop until an item arrives or the queue
// is closed.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    *queue.Queue
	capacity int
	closed   bool
}

// NewBoundedQueue creates a queue holding at most capacity items.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	q := &BoundedQueue[T]{
		items:    queue.New(),
		capacity: capacity,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends v. It returns false if the queue is full or closed.
func (q *BoundedQueue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed || q.items.Length() >= q.capacity {
		q.mu.Unlock()
		return false
	}
	q.items.Add(v)
	q.mu.Unlock()
	q.notEmpty.Signal()
	return true
}

// Pop removes the oldest item, blocking while the queue is empty. Once the
// queue is closed the remaining items are still handed out; after that Pop
// returns false.
func (q *BoundedQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	var zero T
	if q.items.Length() == 0 {
		return zero, false
	}
	return q.items.Remove().(T), true
}

// Len returns the number of queued items.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Cap returns the capacity.
func (q *BoundedQueue[T]) Cap() int { return q.capacity }

// Close rejects further pushes and wakes every blocked consumer.
func (q *BoundedQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Closed reports whether Close was called.
func (q *BoundedQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
