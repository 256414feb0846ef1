// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server runs the single event loop of hioload-httpd. The loop goroutine is
// locked to its OS thread and is the only goroutine that touches the poller,
// the idle timer registry and the table of live connections. Workers receive
// WorkItems through a bounded queue and report back with Completions, which
// wake the loop through an eventfd.
//
// The Strategy chosen at startup decides where socket I/O happens:
//
//	Proactor  the loop reads and writes; workers only parse and build responses
//	Reactor   workers read, parse, respond and write; the loop only routes readiness
//
// Every connection socket is armed one-shot, so a connection is never queued
// twice and is handled by one goroutine at a time.
package server
