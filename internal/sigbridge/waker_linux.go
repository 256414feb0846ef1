//go:build linux
// +build linux

// File: internal/sigbridge/waker_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sigbridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Waker is an eventfd used by workers to wake the event loop.
type Waker struct {
	fd     int
	closed atomic.Bool
}

// NewWaker creates a non-blocking eventfd.
func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Waker{fd: fd}, nil
}

// Fd is the descriptor to register with the poller.
func (w *Waker) Fd() int { return w.fd }

// Wake increments the counter. Safe from any goroutine.
func (w *Waker) Wake() {
	if w.closed.Load() {
		return
	}
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, _ = unix.Write(w.fd, one[:])
}

// Drain resets the counter and returns how many wakes it held.
func (w *Waker) Drain() (uint64, error) {
	var buf [8]byte
	_, err := unix.Read(w.fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, nil
		}
		return 0, fmt.Errorf("drain eventfd: %w", err)
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}

// Close releases the eventfd.
func (w *Waker) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(w.fd)
}
