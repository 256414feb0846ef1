// Package timer
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Idle-connection timer registry. Timers live in an arena owned by the Registry
// and are linked into one list kept in ascending expiry order. Callers hold a
// Handle, never a pointer: removing a timer bumps its slot generation so stale
// handles become harmless no-ops.
//
// The Registry is not safe for concurrent use. The server mutates it only from
// the event-loop goroutine.
package timer
