// File: internal/transport/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"net/netip"
)

// BusyMessage is written to connections refused at the ceiling.
const BusyMessage = "Internal server busy"

// DefaultBacklog is used when ListenConfig.Backlog is not positive.
const DefaultBacklog = 1024

var (
	// ErrWouldBlock means no pending connection is ready.
	ErrWouldBlock = errors.New("accept would block")
	// ErrListenerClosed is returned after Close.
	ErrListenerClosed = errors.New("listener is closed")
	// ErrUnsupported is returned on platforms without the raw socket layer.
	ErrUnsupported = errors.New("raw listener not supported on this platform")
)

// ListenConfig describes the single listening endpoint.
type ListenConfig struct {
	// Addr is the IPv4 bind address; empty means all interfaces.
	Addr string
	// Port to bind. Zero picks an ephemeral port.
	Port int
	// Backlog for listen(2).
	Backlog int
	// Linger selects SO_LINGER {1,1} instead of {0,1}.
	Linger bool
}

// Peer is the remote endpoint of an accepted connection.
type Peer = netip.AddrPort
