// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-httpd/control"
	"github.com/momentics/hioload-httpd/internal/credstore"
	"github.com/momentics/hioload-httpd/internal/httpconn"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger sets the server logger. Connections derive children from it.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithMetrics sets the collectors the server updates.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStore hands the credential store to the server. The server closes it
// during shutdown, after every connection is gone.
func WithStore(st *credstore.Store) Option {
	return func(s *Server) {
		s.store = st
		if st != nil {
			s.auth = st
		}
	}
}

// WithAuthenticator serves the login endpoints from a without taking
// ownership of it.
func WithAuthenticator(a httpconn.Authenticator) Option {
	return func(s *Server) {
		s.auth = a
	}
}

// WithStrategy overrides the strategy named in the configuration.
func WithStrategy(st Strategy) Option {
	return func(s *Server) {
		s.strategy = st
	}
}

// WithSignals replaces the process signals forwarded into the loop.
// SIGTERM and SIGINT are forwarded by default.
func WithSignals(sigs ...os.Signal) Option {
	return func(s *Server) {
		s.signals = sigs
	}
}

// WithClock replaces the clock used by the idle timers.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}
