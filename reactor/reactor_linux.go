//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based poller.

package reactor

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Poller is an epoll instance. Wait must only be called from one goroutine;
// Add, Modify and Remove are safe to call concurrently with Wait.
type Poller struct {
	epfd   int
	raw    []unix.EpollEvent
	out    []Event
	closed atomic.Bool
}

// NewPoller creates an epoll instance reporting at most maxEvents per Wait.
func NewPoller(maxEvents int) (*Poller, error) {
	if maxEvents <= 0 {
		maxEvents = 128
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &Poller{
		epfd: epfd,
		raw:  make([]unix.EpollEvent, maxEvents),
		out:  make([]Event, 0, maxEvents),
	}, nil
}

// Add registers fd with the given interest.
func (p *Poller) Add(fd int, in Interest) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, in)
}

// Modify re-arms fd. For one-shot descriptors this is how a finished worker
// hands the socket back to the loop.
func (p *Poller) Modify(fd int, in Interest) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, in)
}

// Remove deregisters fd.
func (p *Poller) Remove(fd int) error {
	if p.closed.Load() {
		return ErrPollerClosed
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

func (p *Poller) ctl(op, fd int, in Interest) error {
	if p.closed.Load() {
		return ErrPollerClosed
	}
	ev := unix.EpollEvent{
		Events: interestToEpoll(in),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl: %w", err)
	}
	return nil
}

// Wait blocks until events are available. timeoutMs < 0 blocks indefinitely.
// An interrupted wait returns an empty batch and no error. The returned slice
// is reused by the next call.
func (p *Poller) Wait(timeoutMs int) ([]Event, error) {
	if p.closed.Load() {
		return nil, ErrPollerClosed
	}
	n, err := unix.EpollWait(p.epfd, p.raw, timeoutMs)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return p.out[:0], nil
		}
		return nil, fmt.Errorf("epoll wait: %w", err)
	}
	out := p.out[:0]
	for i := 0; i < n; i++ {
		out = append(out, Event{
			Fd:    int(p.raw[i].Fd),
			Flags: epollToFlags(p.raw[i].Events),
		})
	}
	p.out = out
	return out, nil
}

// Close releases the epoll descriptor.
func (p *Poller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(p.epfd)
}

func interestToEpoll(in Interest) uint32 {
	var ev uint32
	if in.Events&Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if in.Events&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	if in.Events&PeerClosed != 0 {
		ev |= unix.EPOLLRDHUP
	}
	if in.Mode == EdgeTriggered {
		ev |= unix.EPOLLET
	}
	if in.OneShot {
		ev |= unix.EPOLLONESHOT
	}
	return ev
}

func epollToFlags(ev uint32) EventFlags {
	var f EventFlags
	if ev&unix.EPOLLIN != 0 {
		f |= Readable
	}
	if ev&unix.EPOLLOUT != 0 {
		f |= Writable
	}
	if ev&unix.EPOLLRDHUP != 0 {
		f |= PeerClosed
	}
	if ev&unix.EPOLLHUP != 0 {
		f |= Hangup
	}
	if ev&unix.EPOLLERR != 0 {
		f |= Error
	}
	return f
}
