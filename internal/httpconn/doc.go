// Package httpconn
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-socket HTTP/1.1 state machine. A Conn owns its read buffer, parse state
// and the two-segment response (header bytes plus a read-only memory-mapped
// file). The event loop and the workers drive it through three calls:
//
//	Read    pull bytes from the socket into the buffer
//	Process parse what is buffered and prepare a response
//	Write   drain the response with scatter writes
//
// Each call returns an Action telling the caller how to re-arm the socket.
// A Conn is never used by two goroutines at once; the caller guarantees this
// through one-shot readiness.
package httpconn
