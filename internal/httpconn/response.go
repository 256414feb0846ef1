// File: internal/httpconn/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"path"
	"strconv"
	"strings"
)

type canned struct {
	status int
	title  string
	body   string
}

var cannedByCode = map[Code]canned{
	BadRequest:       {400, "Bad Request", "Your request has bad syntax or is inherently impossible to satisfy.\n"},
	ForbiddenRequest: {403, "Forbidden", "You do not have permission to get the file from this server.\n"},
	NoResource:       {404, "Not Found", "The requested file was not found on this server.\n"},
	InternalError:    {500, "Internal Error", "There was an unusual problem serving the requested file.\n"},
	NotImplemented:   {501, "Not Implemented", "The request method is not implemented by this server.\n"},
}

var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".json":  "application/json",
	".txt":   "text/plain; charset=utf-8",
	".xml":   "application/xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".mp4":   "video/mp4",
	".pdf":   "application/pdf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

const defaultMIME = "application/octet-stream"

// ContentType returns the MIME type for name's extension.
func ContentType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return defaultMIME
}

// prepare builds the header segment and the scatter list for code.
func (c *Conn) prepare(code Code) bool {
	c.wbuf = c.wbuf[:0]
	var (
		title string
		ctype string
		body  []byte
	)
	if code == FileRequest {
		c.status, title = 200, "OK"
		ctype = ContentType(c.served)
		body = c.file
	} else {
		cn, ok := cannedByCode[code]
		if !ok {
			c.log.Error().Int("code", int(code)).Msg("no response for outcome")
			return false
		}
		c.status, title = cn.status, cn.title
		ctype = "text/plain; charset=utf-8"
		// errors other than missing or forbidden files never keep the connection
		if code != NoResource && code != ForbiddenRequest {
			c.forceClose = true
		}
	}

	conn := "close"
	if c.KeepAlive() {
		conn = "keep-alive"
	}

	c.wbuf = append(c.wbuf, "HTTP/1.1 "...)
	c.wbuf = strconv.AppendInt(c.wbuf, int64(c.status), 10)
	c.wbuf = append(c.wbuf, ' ')
	c.wbuf = append(c.wbuf, title...)
	c.wbuf = append(c.wbuf, "\r\nContent-Type: "...)
	c.wbuf = append(c.wbuf, ctype...)
	c.wbuf = append(c.wbuf, "\r\nContent-Length: "...)
	if code == FileRequest {
		c.wbuf = strconv.AppendInt(c.wbuf, int64(len(body)), 10)
	} else {
		c.wbuf = strconv.AppendInt(c.wbuf, int64(len(cannedByCode[code].body)), 10)
	}
	c.wbuf = append(c.wbuf, "\r\nConnection: "...)
	c.wbuf = append(c.wbuf, conn...)
	c.wbuf = append(c.wbuf, "\r\n\r\n"...)
	if code != FileRequest {
		c.wbuf = append(c.wbuf, cannedByCode[code].body...)
	}

	c.iov[0] = c.wbuf
	c.iov[1] = body
	c.toSend = len(c.wbuf) + len(body)
	c.sent = 0
	if c.consumed == 0 {
		// rejected before the request boundary was known: nothing is reusable
		c.consumed = len(c.rbuf)
	}

	if c.site.Observe != nil {
		c.site.Observe(c.status)
	}
	c.log.Debug().Int("status", c.status).Str("method", c.method.String()).
		Str("target", c.target).Int("bytes", c.toSend).Msg("response ready")
	return true
}
