// File: server/strategy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatch strategies. A Strategy decides which side of the queue performs
// socket I/O; the connection state machine is the same under both.

package server

import (
	"fmt"

	"github.com/momentics/hioload-httpd/control"
	"github.com/momentics/hioload-httpd/internal/httpconn"
)

// Dispatch is the loop-side surface a Strategy drives. Its methods are only
// called on the loop goroutine.
type Dispatch interface {
	// Submit queues item for the workers. A full queue evicts the connection.
	Submit(item WorkItem)
	// Touch refreshes the idle timer of c.
	Touch(c *httpconn.Conn)
	// Settle re-arms c for act, or tears it down for ActionClose.
	Settle(c *httpconn.Conn, act httpconn.Action)
}

// Strategy routes readiness to the workers.
type Strategy interface {
	Name() string
	// Readable and Writable run on the loop goroutine.
	Readable(d Dispatch, c *httpconn.Conn)
	Writable(d Dispatch, c *httpconn.Conn)
	// Work runs on a worker goroutine.
	Work(item WorkItem) Completion
}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case control.StrategyProactor, "":
		return Proactor{}, nil
	case control.StrategyReactor:
		return Reactor{}, nil
	}
	return nil, fmt.Errorf("unknown dispatch strategy %q", name)
}

// Reactor hands raw readiness to the workers, which perform the I/O and the
// full parse/respond cycle. Timers move only when completions arrive.
type Reactor struct{}

func (Reactor) Name() string { return control.StrategyReactor }

func (Reactor) Readable(d Dispatch, c *httpconn.Conn) {
	d.Submit(WorkItem{Conn: c, Op: OpRead})
}

func (Reactor) Writable(d Dispatch, c *httpconn.Conn) {
	d.Submit(WorkItem{Conn: c, Op: OpWrite})
}

func (Reactor) Work(item WorkItem) Completion {
	c := item.Conn
	var act httpconn.Action
	switch item.Op {
	case OpRead:
		if err := c.Read(); err != nil {
			c.Logger().Debug().Err(err).Msg("read")
			return Completion{Conn: c, Action: httpconn.ActionClose}
		}
		act = drive(c, c.Process())
	case OpWrite:
		act = c.Write()
		if act == httpconn.ActionProcess {
			act = drive(c, c.Process())
		}
	default:
		act = drive(c, c.Process())
	}
	return Completion{Conn: c, Action: act, Active: act != httpconn.ActionClose}
}

// Proactor keeps socket I/O on the loop goroutine and queues only parsing
// and response building.
type Proactor struct{}

func (Proactor) Name() string { return control.StrategyProactor }

func (Proactor) Readable(d Dispatch, c *httpconn.Conn) {
	if err := c.Read(); err != nil {
		c.Logger().Debug().Err(err).Msg("read")
		d.Settle(c, httpconn.ActionClose)
		return
	}
	d.Touch(c)
	d.Submit(WorkItem{Conn: c, Op: OpProcess})
}

func (Proactor) Writable(d Dispatch, c *httpconn.Conn) {
	sent := c.Sent()
	act := c.Write()
	switch act {
	case httpconn.ActionRead:
		d.Touch(c)
		d.Settle(c, act)
	case httpconn.ActionProcess:
		d.Touch(c)
		d.Submit(WorkItem{Conn: c, Op: OpProcess})
	case httpconn.ActionWrite:
		// a partial write still counts as activity
		if c.Sent() > sent {
			d.Touch(c)
		}
		d.Settle(c, act)
	default:
		d.Settle(c, act)
	}
}

func (Proactor) Work(item WorkItem) Completion {
	return Completion{Conn: item.Conn, Action: item.Conn.Process()}
}

// drive continues from a Process result until the connection needs the
// socket again. It returns ActionRead, ActionClose, or ActionWrite when a
// write would block.
func drive(c *httpconn.Conn, act httpconn.Action) httpconn.Action {
	for act == httpconn.ActionWrite {
		next := c.Write()
		if next != httpconn.ActionProcess {
			return next
		}
		act = c.Process()
	}
	return act
}
