// File: internal/httpconn/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-httpd/pool"
)

// State is the parse phase. It only moves forward within one request.
type State uint8

const (
	StateRequestLine State = iota
	StateHeaders
	StateContent
)

func (s State) String() string {
	switch s {
	case StateRequestLine:
		return "request-line"
	case StateHeaders:
		return "headers"
	case StateContent:
		return "content"
	}
	return "unknown"
}

// LineStatus is the line scanner outcome.
type LineStatus uint8

const (
	// LineOK means a complete CRLF-terminated line is available.
	LineOK LineStatus = iota
	// LineOpen means more bytes are needed.
	LineOpen
	// LineBad means a malformed terminator or a full buffer without a line.
	LineBad
)

// Code is the outcome of parsing and request handling.
type Code uint8

const (
	NoRequest Code = iota
	GetRequest
	BadRequest
	NoResource
	ForbiddenRequest
	FileRequest
	InternalError
	NotImplemented
)

// Method is the request method.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	}
	return "UNKNOWN"
}

// Action tells the caller what the connection needs next.
type Action uint8

const (
	// ActionRead re-arms the socket for readability.
	ActionRead Action = iota
	// ActionWrite re-arms the socket for writability.
	ActionWrite
	// ActionProcess means buffered bytes already hold more input; call Process again.
	ActionProcess
	// ActionClose tears the connection down.
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionProcess:
		return "process"
	case ActionClose:
		return "close"
	}
	return "unknown"
}

// Application endpoints and the pages they resolve to.
const (
	TargetLogin    = "/login"
	TargetRegister = "/register"

	PageLogin         = "log.html"
	PageRegister      = "register.html"
	PageWelcome       = "welcome.html"
	PageLoginError    = "logError.html"
	PageRegisterError = "registerError.html"
)

// Authenticator checks and creates users. ok is false for rejected
// credentials; err reports infrastructure failures.
type Authenticator interface {
	Login(ctx context.Context, user, password string) (ok bool, err error)
	Register(ctx context.Context, user, password string) (ok bool, err error)
}

// Site is the read-only environment shared by every connection.
type Site struct {
	// Root is the document root.
	Root string
	// Index is served for "/".
	Index string
	// MaxRead bounds the per-connection read buffer.
	MaxRead int
	Auth    Authenticator
	Buffers *pool.BytePool
	Log     zerolog.Logger
	// Observe, when set, is called with the status of every prepared response.
	Observe func(status int)
}
