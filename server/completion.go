// File: server/completion.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "sync"

// waker nudges the loop out of its wait. sigbridge.Waker satisfies it.
type waker interface {
	Wake()
}

// completionQueue carries worker results to the loop. Pushes wake the loop
// once per empty-to-non-empty transition.
type completionQueue struct {
	mu    sync.Mutex
	items []Completion
	spare []Completion
	wake  waker
}

func newCompletionQueue(w waker) *completionQueue {
	return &completionQueue{wake: w}
}

func (q *completionQueue) push(c Completion) {
	q.mu.Lock()
	first := len(q.items) == 0
	q.items = append(q.items, c)
	q.mu.Unlock()
	if first && q.wake != nil {
		q.wake.Wake()
	}
}

// drain hands every queued completion to fn in push order. fn runs without
// the lock held and may push.
func (q *completionQueue) drain(fn func(Completion)) int {
	q.mu.Lock()
	batch := q.items
	q.items = q.spare[:0]
	q.mu.Unlock()

	for i := range batch {
		fn(batch[i])
		batch[i] = Completion{}
	}

	q.mu.Lock()
	q.spare = batch[:0]
	q.mu.Unlock()
	return len(batch)
}

func (q *completionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
