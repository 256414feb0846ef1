// File: internal/httpconn/io.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import "errors"

// ErrPeerClosed is returned by Read when the client closed its side.
var ErrPeerClosed = errors.New("peer closed connection")

// finish decides what follows a fully sent response.
func (c *Conn) finish() Action {
	c.unmap()
	if !c.KeepAlive() {
		return ActionClose
	}
	c.reset()
	if len(c.rbuf) > 0 {
		return ActionProcess
	}
	return ActionRead
}

// advance drops n sent bytes from the front of the scatter list.
func (c *Conn) advance(n int) {
	c.sent += n
	for i := range c.iov {
		if n == 0 {
			break
		}
		if n >= len(c.iov[i]) {
			n -= len(c.iov[i])
			c.iov[i] = nil
			continue
		}
		c.iov[i] = c.iov[i][n:]
		n = 0
	}
}

// pending returns the non-empty scatter segments.
func (c *Conn) pending(dst [][]byte) [][]byte {
	dst = dst[:0]
	for _, seg := range c.iov {
		if len(seg) > 0 {
			dst = append(dst, seg)
		}
	}
	return dst
}
