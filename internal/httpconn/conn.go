// File: internal/httpconn/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-httpd/internal/timer"
	"github.com/momentics/hioload-httpd/internal/transport"
)

const defaultMaxRead = 64 * 1024

// Conn is one client connection.
type Conn struct {
	fd   int
	id   ulid.ULID
	peer transport.Peer
	site *Site
	edge bool
	log  zerolog.Logger

	// Timer is the idle timer owned by the registry. The loop goroutine alone reads and writes it.
	Timer timer.Handle

	// read side; len(rbuf) is the number of bytes read
	rbuf      []byte
	rbufp     *[]byte
	checked   int
	lineStart int
	bodyStart int
	consumed  int

	state         State
	method        Method
	target        string
	version       string
	host          string
	contentLength int
	keepAlive     bool
	body          []byte

	// write side
	wbuf       []byte
	wbufp      *[]byte
	served     string
	file       []byte
	mapped     bool
	iov        [2][]byte
	toSend     int
	sent       int
	status     int
	forceClose bool
}

// New wraps an accepted, non-blocking socket. edge selects edge-triggered
// reads, which drain the socket until it would block.
func New(fd int, peer transport.Peer, site *Site, edge bool) *Conn {
	c := &Conn{
		fd:   fd,
		id:   ulid.Make(),
		peer: peer,
		site: site,
		edge: edge,
	}
	c.log = site.Log.With().Str("conn", c.id.String()).Str("peer", peer.String()).Logger()
	if site.Buffers != nil {
		c.rbufp = site.Buffers.Get()
		c.rbuf = (*c.rbufp)[:0]
		c.wbufp = site.Buffers.Get()
		c.wbuf = (*c.wbufp)[:0]
	}
	return c
}

// Fd returns the socket descriptor, or -1 once closed.
func (c *Conn) Fd() int { return c.fd }

// ID returns the connection id.
func (c *Conn) ID() ulid.ULID { return c.id }

// Peer returns the remote address.
func (c *Conn) Peer() transport.Peer { return c.peer }

// Logger returns the connection-scoped logger.
func (c *Conn) Logger() *zerolog.Logger { return &c.log }

// State returns the parse phase.
func (c *Conn) State() State { return c.state }

// Method returns the parsed method.
func (c *Conn) Method() Method { return c.method }

// Target returns the parsed target after query stripping and index mapping.
func (c *Conn) Target() string { return c.target }

// Host returns the Host header.
func (c *Conn) Host() string { return c.host }

// KeepAlive reports whether the connection stays open after the response.
func (c *Conn) KeepAlive() bool { return c.keepAlive && !c.forceClose }

// Status returns the status code of the prepared response.
func (c *Conn) Status() int { return c.status }

// Sent is the number of response bytes written so far.
func (c *Conn) Sent() int { return c.sent }

// Buffered returns the number of read bytes not yet consumed by a request.
func (c *Conn) Buffered() int { return len(c.rbuf) - c.consumed }

// Process parses buffered input. On a complete request it prepares the
// response and returns ActionWrite; on incomplete input it returns ActionRead.
func (c *Conn) Process() Action {
	code := c.parse()
	if code == NoRequest {
		return ActionRead
	}
	if !c.prepare(code) {
		return ActionClose
	}
	return ActionWrite
}

// reset readies the connection for the next request, keeping pipelined bytes.
func (c *Conn) reset() {
	tail := len(c.rbuf) - c.consumed
	if tail > 0 && c.consumed > 0 {
		copy(c.rbuf, c.rbuf[c.consumed:])
	}
	c.rbuf = c.rbuf[:tail]
	c.checked, c.lineStart, c.bodyStart, c.consumed = 0, 0, 0, 0

	c.state = StateRequestLine
	c.method = MethodUnknown
	c.target, c.version, c.host = "", "", ""
	c.contentLength = 0
	c.keepAlive = false
	c.body = nil

	c.served = ""
	c.wbuf = c.wbuf[:0]
	c.iov = [2][]byte{}
	c.toSend, c.sent, c.status = 0, 0, 0
	c.forceClose = false
}

// grow makes room for at least one more byte up to MaxRead. It returns false
// when the buffer is already at its maximum.
func (c *Conn) grow() bool {
	if len(c.rbuf) < cap(c.rbuf) {
		return true
	}
	limit := c.maxRead()
	if cap(c.rbuf) >= limit {
		return false
	}
	n := 2 * cap(c.rbuf)
	if n < 4096 {
		n = 4096
	}
	if n > limit {
		n = limit
	}
	nb := make([]byte, len(c.rbuf), n)
	copy(nb, c.rbuf)
	c.rbuf = nb
	return true
}

func (c *Conn) maxRead() int {
	if c.site.MaxRead > 0 {
		return c.site.MaxRead
	}
	return defaultMaxRead
}

// releaseBuffers hands the pooled buffers back.
func (c *Conn) releaseBuffers() {
	if c.site.Buffers == nil {
		return
	}
	if c.rbufp != nil {
		*c.rbufp = c.rbuf[:0]
		c.site.Buffers.Put(c.rbufp)
		c.rbufp = nil
	}
	if c.wbufp != nil {
		*c.wbufp = c.wbuf[:0]
		c.site.Buffers.Put(c.wbufp)
		c.wbufp = nil
	}
	c.rbuf, c.wbuf = nil, nil
}
