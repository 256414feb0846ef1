// File: internal/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "errors"

var (
	// ErrQueueClosed is returned when submitting to a closed pool.
	ErrQueueClosed = errors.New("work queue is closed")
	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("work queue is full")
)
