//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "errors"

// Poller is unavailable outside Linux.
type Poller struct{}

// NewPoller returns an error for unsupported platforms.
func NewPoller(maxEvents int) (*Poller, error) {
	return nil, errors.New("reactor: this platform is not supported")
}

func (p *Poller) Add(fd int, in Interest) error    { return ErrPollerClosed }
func (p *Poller) Modify(fd int, in Interest) error { return ErrPollerClosed }
func (p *Poller) Remove(fd int) error              { return ErrPollerClosed }
func (p *Poller) Wait(timeoutMs int) ([]Event, error) {
	return nil, ErrPollerClosed
}
func (p *Poller) Close() error { return nil }
