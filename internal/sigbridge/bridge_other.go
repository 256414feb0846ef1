//go:build !linux
// +build !linux

// File: internal/sigbridge/bridge_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sigbridge

import (
	"errors"
	"os"
	"syscall"
	"time"
)

var errUnsupported = errors.New("sigbridge: not supported on this platform")

// Flags is what a drained batch of signal bytes asks the loop to do.
type Flags struct {
	Timeout bool
	Stop    bool
}

// Bridge is unavailable off Linux.
type Bridge struct{}

// New always fails on this platform.
func New(...os.Signal) (*Bridge, error) { return nil, errUnsupported }

func (b *Bridge) Fd() int                { return -1 }
func (b *Bridge) Send(syscall.Signal)    {}
func (b *Bridge) ArmAlarm(time.Duration) {}
func (b *Bridge) RearmAlarm()            {}
func (b *Bridge) Drain() (Flags, error)  { return Flags{}, errUnsupported }
func (b *Bridge) Close() error           { return nil }

// Waker is unavailable off Linux.
type Waker struct{}

// NewWaker always fails on this platform.
func NewWaker() (*Waker, error) { return nil, errUnsupported }

func (w *Waker) Fd() int                { return -1 }
func (w *Waker) Wake()                  {}
func (w *Waker) Drain() (uint64, error) { return 0, errUnsupported }
func (w *Waker) Close() error           { return nil }
