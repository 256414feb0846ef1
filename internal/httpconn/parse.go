// File: internal/httpconn/parse.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"bytes"
	"strconv"
	"strings"
)

// parse advances the state machine over buffered bytes and returns NoRequest
// until a request is complete or rejected.
func (c *Conn) parse() Code {
	for {
		if c.state == StateContent {
			return c.parseContent()
		}

		status, end := c.scanLine()
		switch status {
		case LineOpen:
			if len(c.rbuf) >= c.maxRead() {
				c.log.Debug().Int("buffered", len(c.rbuf)).Msg("request head exceeds read buffer")
				return BadRequest
			}
			return NoRequest
		case LineBad:
			return BadRequest
		}

		line := c.rbuf[c.lineStart:end]
		c.lineStart = c.checked

		var code Code
		switch c.state {
		case StateRequestLine:
			code = c.parseRequestLine(line)
		case StateHeaders:
			code = c.parseHeader(line)
		}
		switch code {
		case NoRequest:
			continue
		case GetRequest:
			c.consumed = c.checked
			return c.doRequest()
		default:
			return code
		}
	}
}

// scanLine looks for CRLF from the scan cursor. On LineOK the cursor sits past
// the terminator and end is the index where the line content stops.
func (c *Conn) scanLine() (LineStatus, int) {
	for ; c.checked < len(c.rbuf); c.checked++ {
		switch c.rbuf[c.checked] {
		case '\r':
			if c.checked+1 == len(c.rbuf) {
				return LineOpen, 0
			}
			if c.rbuf[c.checked+1] == '\n' {
				end := c.checked
				c.checked += 2
				return LineOK, end
			}
			return LineBad, 0
		case '\n':
			if c.checked > c.lineStart && c.rbuf[c.checked-1] == '\r' {
				end := c.checked - 1
				c.checked++
				return LineOK, end
			}
			return LineBad, 0
		}
	}
	return LineOpen, 0
}

var notImplemented = map[string]struct{}{
	"HEAD": {}, "PUT": {}, "DELETE": {}, "TRACE": {},
	"OPTIONS": {}, "CONNECT": {}, "PATCH": {},
}

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

// parseRequestLine handles "METHOD target HTTP/1.1".
func (c *Conn) parseRequestLine(line []byte) Code {
	s := string(line)

	i := strings.IndexFunc(s, isBlank)
	if i <= 0 {
		return BadRequest
	}
	method := s[:i]
	s = strings.TrimLeftFunc(s[i:], isBlank)

	i = strings.IndexFunc(s, isBlank)
	if i <= 0 {
		return BadRequest
	}
	target := s[:i]
	version := strings.TrimFunc(s[i:], isBlank)

	switch {
	case strings.EqualFold(method, "GET"):
		c.method = MethodGet
	case strings.EqualFold(method, "POST"):
		c.method = MethodPost
	default:
		if _, ok := notImplemented[strings.ToUpper(method)]; ok {
			return NotImplemented
		}
		return BadRequest
	}

	if !strings.EqualFold(version, "HTTP/1.1") {
		return BadRequest
	}
	c.version = "HTTP/1.1"

	for _, scheme := range []string{"http://", "https://"} {
		if len(target) >= len(scheme) && strings.EqualFold(target[:len(scheme)], scheme) {
			rest := target[len(scheme):]
			slash := strings.IndexByte(rest, '/')
			if slash < 0 {
				return BadRequest
			}
			target = rest[slash:]
			break
		}
	}
	if target == "" || target[0] != '/' {
		return BadRequest
	}
	if q := strings.IndexByte(target, '?'); q >= 0 {
		target = target[:q]
	}
	if target == "/" {
		target = "/" + c.site.Index
	}
	c.target = target
	c.state = StateHeaders
	return NoRequest
}

// parseHeader handles one header line or the blank line ending the head.
func (c *Conn) parseHeader(line []byte) Code {
	if len(line) == 0 {
		if c.contentLength > 0 {
			c.bodyStart = c.checked
			if c.bodyStart+c.contentLength > c.maxRead() {
				c.log.Debug().Int("content_length", c.contentLength).Msg("body exceeds read buffer")
				return BadRequest
			}
			c.state = StateContent
			return NoRequest
		}
		return GetRequest
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return BadRequest
	}
	name := string(bytes.TrimSpace(line[:colon]))
	value := string(bytes.TrimSpace(line[colon+1:]))

	switch {
	case strings.EqualFold(name, "Connection"):
		if strings.EqualFold(value, "keep-alive") {
			c.keepAlive = true
		}
	case strings.EqualFold(name, "Content-Length"):
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return BadRequest
		}
		c.contentLength = n
	case strings.EqualFold(name, "Host"):
		c.host = value
	default:
		c.log.Debug().Str("header", name).Msg("unknown header")
	}
	return NoRequest
}

// parseContent completes once the whole body is buffered.
func (c *Conn) parseContent() Code {
	end := c.bodyStart + c.contentLength
	if len(c.rbuf) < end {
		return NoRequest
	}
	c.body = c.rbuf[c.bodyStart:end]
	c.checked = end
	c.consumed = end
	return c.doRequest()
}
