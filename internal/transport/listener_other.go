//go:build !linux
// +build !linux

// File: internal/transport/listener_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

// Listener is unavailable off Linux.
type Listener struct{}

// Listen always fails on this platform.
func Listen(ListenConfig) (*Listener, error) { return nil, ErrUnsupported }

func (l *Listener) Fd() int                    { return -1 }
func (l *Listener) Port() int                  { return 0 }
func (l *Listener) Accept() (int, Peer, error) { return -1, Peer{}, ErrUnsupported }
func (l *Listener) Close() error               { return nil }

// RejectBusy is a no-op on this platform.
func RejectBusy(int) {}
