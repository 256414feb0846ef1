// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"

	"github.com/momentics/hioload-httpd/internal/httpconn"
)

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("server already running")
	// ErrServerClosed is returned by Run after the server has stopped once.
	ErrServerClosed = errors.New("server closed")
)

// Op tags what a worker does with a connection.
type Op uint8

const (
	// OpRead reads from the socket, then parses and responds.
	OpRead Op = iota
	// OpWrite drains a pending response.
	OpWrite
	// OpProcess parses buffered input and builds the response.
	OpProcess
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpProcess:
		return "process"
	}
	return "unknown"
}

// WorkItem is one unit of queued work. The connection belongs to the worker
// that pops it until the matching Completion reaches the loop.
type WorkItem struct {
	Conn *httpconn.Conn
	Op   Op
}

// Completion reports a finished WorkItem back to the loop.
type Completion struct {
	Conn *httpconn.Conn
	// Action is what the connection needs next. ActionClose tears it down.
	Action httpconn.Action
	// Active asks the loop to refresh the idle timer.
	Active bool
}

// client is the loop's record of a live connection.
type client struct {
	conn *httpconn.Conn
	// inflight is set while a WorkItem for conn is queued or running.
	inflight bool
}
