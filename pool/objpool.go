// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import "sync"

// ObjectPool is a generic object pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool is a typed sync.Pool with an optional reset hook run on Put.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T) bool
}

// NewSyncPool creates a pool. reset may be nil; when it returns false the
// object is dropped instead of being recycled.
func NewSyncPool[T any](creator func() T, reset func(T) bool) *SyncPool[T] {
	sp := &SyncPool[T]{reset: reset}
	sp.pool.New = func() any { return creator() }
	return sp
}

func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	if sp.reset != nil && !sp.reset(obj) {
		return
	}
	sp.pool.Put(obj)
}
