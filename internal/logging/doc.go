// Package logging
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Leveled structured logging for the server built on zerolog. The sink is
// either synchronous or asynchronous (a diode ring drained by a background
// goroutine) and writes to stderr or an append-only file.
package logging
