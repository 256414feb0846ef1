// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker-side concurrency primitives for the HTTP core: a fixed-capacity FIFO
// shared between the event loop and workers, the fixed-size worker pool that
// drains it, and optional CPU pinning of the calling OS thread.
package concurrency
