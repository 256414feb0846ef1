// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness types shared by the poller implementations.

package reactor

import "errors"

// ErrPollerClosed is returned by operations on a closed Poller.
var ErrPollerClosed = errors.New("reactor: poller closed")

// EventFlags is a bitmask of readiness conditions.
type EventFlags uint32

const (
	// Readable reports pending input (or a pending connection on a listener).
	Readable EventFlags = 1 << iota
	// Writable reports room in the send buffer.
	Writable
	// PeerClosed reports that the peer shut down its writing half (EPOLLRDHUP).
	PeerClosed
	// Hangup reports a hang-up on the descriptor.
	Hangup
	// Error reports an error condition on the descriptor.
	Error
)

// Broken reports whether the flags describe a dead connection.
func (f EventFlags) Broken() bool {
	return f&(PeerClosed|Hangup|Error) != 0
}

// TriggerMode selects level- or edge-triggered notification for a descriptor.
type TriggerMode uint8

const (
	LevelTriggered TriggerMode = iota
	EdgeTriggered
)

func (m TriggerMode) String() string {
	if m == EdgeTriggered {
		return "ET"
	}
	return "LT"
}

// Interest describes how a descriptor is armed.
type Interest struct {
	Events  EventFlags
	Mode    TriggerMode
	OneShot bool
}

// Event is a single readiness report returned by Wait.
type Event struct {
	Fd    int
	Flags EventFlags
}
