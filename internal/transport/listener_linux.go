//go:build linux
// +build linux

// File: internal/transport/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"net/netip"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Listener owns a non-blocking listening socket.
type Listener struct {
	fd     int
	port   int
	closed atomic.Bool
}

// Listen creates, configures, binds and listens.
func Listen(cfg ListenConfig) (*Listener, error) {
	addr := netip.IPv4Unspecified()
	if cfg.Addr != "" {
		a, err := netip.ParseAddr(cfg.Addr)
		if err != nil || !a.Is4() {
			return nil, fmt.Errorf("bind address %q: want IPv4", cfg.Addr)
		}
		addr = a
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	fail := func(op string, err error) (*Listener, error) {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	linger := unix.Linger{Onoff: 0, Linger: 1}
	if cfg.Linger {
		linger.Onoff = 1
	}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &linger); err != nil {
		return fail("set linger", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fail("set reuseaddr", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: cfg.Port, Addr: addr.As4()}); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fail("listen", err)
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return fail("getsockname", err)
	}
	port := cfg.Port
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		port = in4.Port
	}
	return &Listener{fd: fd, port: port}, nil
}

// Fd returns the listening descriptor.
func (l *Listener) Fd() int { return l.fd }

// Port returns the bound port.
func (l *Listener) Port() int { return l.port }

// Accept takes one pending connection. The returned descriptor is
// non-blocking and close-on-exec. ErrWouldBlock means the backlog is empty.
func (l *Listener) Accept() (int, Peer, error) {
	if l.closed.Load() {
		return -1, Peer{}, ErrListenerClosed
	}
	for {
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			switch {
			case errors.Is(err, unix.EINTR), errors.Is(err, unix.ECONNABORTED):
				continue
			case errors.Is(err, unix.EAGAIN):
				return -1, Peer{}, ErrWouldBlock
			}
			return -1, Peer{}, fmt.Errorf("accept: %w", err)
		}
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		return nfd, peerOf(sa), nil
	}
}

// Close closes the listening socket once.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(l.fd)
}

// RejectBusy writes BusyMessage best-effort and closes fd.
func RejectBusy(fd int) {
	_, _ = unix.Write(fd, []byte(BusyMessage))
	_ = unix.Close(fd)
}

func peerOf(sa unix.Sockaddr) Peer {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr), uint16(a.Port))
	}
	return Peer{}
}
