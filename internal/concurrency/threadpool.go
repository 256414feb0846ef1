// File: internal/concurrency/threadpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ThreadPool runs a fixed number of workers over one BoundedQueue.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// PoolConfig configures a ThreadPool.
type PoolConfig[T any] struct {
	// Workers is the number of long-lived worker goroutines. Defaults to runtime.NumCPU().
	Workers int
	// Capacity bounds the queue.
	Capacity int
	// Handle processes one item.
	Handle func(item T)
	// Recovered is called with the item and the panic value when Handle panics.
	Recovered func(item T, r any)
	// PinCPUs pins worker i to CPU i modulo the CPU count.
	PinCPUs bool
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Workers   int
	Pending   int
	Submitted int64
	Completed int64
	Rejected  int64
	Panics    int64
}

// ThreadPool drains a bounded queue with a fixed set of workers.
type ThreadPool[T any] struct {
	queue     *BoundedQueue[T]
	handle    func(T)
	recovered func(T, any)
	workers   int
	pin       bool
	wg        sync.WaitGroup
	closeOnce sync.Once

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// NewThreadPool starts the workers.
func NewThreadPool[T any](cfg PoolConfig[T]) *ThreadPool[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	tp := &ThreadPool[T]{
		queue:     NewBoundedQueue[T](cfg.Capacity),
		handle:    cfg.Handle,
		recovered: cfg.Recovered,
		workers:   cfg.Workers,
		pin:       cfg.PinCPUs,
	}
	tp.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go tp.run(i)
	}
	return tp
}

// Submit enqueues item without blocking.
func (tp *ThreadPool[T]) Submit(item T) error {
	if tp.queue.Push(item) {
		tp.submitted.Add(1)
		return nil
	}
	tp.rejected.Add(1)
	if tp.queue.Closed() {
		return ErrQueueClosed
	}
	return ErrQueueFull
}

// Close stops accepting work, lets the workers drain what is queued and waits for them.
func (tp *ThreadPool[T]) Close() {
	tp.closeOnce.Do(func() {
		tp.queue.Close()
		tp.wg.Wait()
	})
}

// Stats returns current counters.
func (tp *ThreadPool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:   tp.workers,
		Pending:   tp.queue.Len(),
		Submitted: tp.submitted.Load(),
		Completed: tp.completed.Load(),
		Rejected:  tp.rejected.Load(),
		Panics:    tp.panics.Load(),
	}
}

func (tp *ThreadPool[T]) run(id int) {
	defer tp.wg.Done()
	if tp.pin {
		defer UnpinCurrentThread()
		_ = PinCurrentThread(id)
	}
	for {
		item, ok := tp.queue.Pop()
		if !ok {
			return
		}
		tp.execute(item)
	}
}

// execute runs one item and keeps the worker alive across panics.
func (tp *ThreadPool[T]) execute(item T) {
	defer func() {
		if r := recover(); r != nil {
			tp.panics.Add(1)
			if tp.recovered != nil {
				tp.recovered(item, r)
			}
		}
		tp.completed.Add(1)
	}()
	tp.handle(item)
}
