//go:build linux
// +build linux

// File: internal/httpconn/io_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Read pulls bytes from the socket. Level-triggered connections read once;
// edge-triggered ones read until the socket would block. A full buffer stops
// reading without error so that Process can reject the request.
func (c *Conn) Read() error {
	for {
		if len(c.rbuf) >= c.maxRead() || !c.grow() {
			return nil
		}
		n, err := unix.Read(c.fd, c.rbuf[len(c.rbuf):cap(c.rbuf)])
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil
		case err != nil:
			return fmt.Errorf("read: %w", err)
		case n == 0:
			return ErrPeerClosed
		}
		c.rbuf = c.rbuf[:len(c.rbuf)+n]
		if !c.edge {
			return nil
		}
	}
}

// Write drains the prepared response with writev. It returns ActionWrite when
// the socket would block, ActionClose on errors or non-persistent
// connections, and ActionRead or ActionProcess after a keep-alive exchange.
func (c *Conn) Write() Action {
	var segs [2][]byte
	for c.sent < c.toSend {
		n, err := unix.Writev(c.fd, c.pending(segs[:0]))
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return ActionWrite
		case err != nil:
			c.log.Debug().Err(err).Int("sent", c.sent).Int("total", c.toSend).Msg("write failed")
			c.unmap()
			return ActionClose
		}
		c.advance(n)
	}
	return c.finish()
}

// Abort shuts the socket down in both directions without releasing the
// descriptor, so that a worker still holding the connection fails its next
// I/O call harmlessly.
func (c *Conn) Abort() {
	if c.fd >= 0 {
		_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
	}
}

// Close unmaps any file, closes the socket and recycles buffers. It is safe
// to call more than once.
func (c *Conn) Close() error {
	if c.fd < 0 {
		return nil
	}
	c.unmap()
	err := unix.Close(c.fd)
	c.fd = -1
	c.releaseBuffers()
	return err
}

func mapFile(name string, size int) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", name, err)
	}
	return data, nil
}

func unmapFile(b []byte) error {
	return unix.Munmap(b)
}
