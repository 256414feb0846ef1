// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer used by the server event loop.
// On Linux it is backed by epoll(7); descriptors can be armed level- or edge-triggered
// and optionally one-shot, so that a socket handed to a worker is not reported again
// until it is explicitly re-armed.
package reactor
