// Package sigbridge
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Turns asynchronous notifications into readable descriptors the event loop
// can multiplex: process signals and the periodic alarm go through a
// non-blocking self-pipe, one byte per signal; worker completions go through
// an eventfd counter.
package sigbridge
