// File: internal/logging/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

// Options selects sink behaviour.
type Options struct {
	Enabled bool
	// Async routes writes through a lock-free ring flushed in the background.
	Async bool
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json or console.
	Format string
	// File is the output path; empty means stderr.
	File string
	// BufferSize is the ring size in messages for async mode.
	BufferSize int
	// FlushInterval is the background poll interval for async mode.
	FlushInterval time.Duration
}

// Sink owns the log output and its flush goroutine.
type Sink struct {
	logger  zerolog.Logger
	file    *os.File
	async   *diode.Writer
	dropped atomic.Int64
	once    sync.Once
}

// Nop returns a sink that discards everything.
func Nop() *Sink {
	return &Sink{logger: zerolog.Nop()}
}

// New builds a sink from opts.
func New(opts Options) (*Sink, error) {
	if !opts.Enabled {
		return Nop(), nil
	}
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	s := &Sink{}
	var out io.Writer = os.Stderr
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("log dir: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		s.file = f
		out = f
	}

	switch strings.ToLower(opts.Format) {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: opts.File != ""}
	default:
		s.closeFile()
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.Async {
		size := opts.BufferSize
		if size <= 0 {
			size = 1000
		}
		interval := opts.FlushInterval
		if interval <= 0 {
			interval = 10 * time.Millisecond
		}
		w := diode.NewWriter(out, size, interval, func(missed int) {
			s.dropped.Add(int64(missed))
		})
		s.async = &w
		out = w
	}

	s.logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return s, nil
}

// Logger returns the root logger. Components derive children with With().
func (s *Sink) Logger() zerolog.Logger { return s.logger }

// Dropped reports messages lost because the async ring overflowed.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Close flushes pending async messages and closes the file.
func (s *Sink) Close() error {
	var err error
	s.once.Do(func() {
		if s.async != nil {
			err = s.async.Close()
		}
		err = errors.Join(err, s.closeFile())
	})
	return err
}

func (s *Sink) closeFile() error {
	if s.file == nil {
		return nil
	}
	f := s.file
	s.file = nil
	return f.Close()
}

// ParseLevel maps a level name to zerolog. Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(name) {
	case "":
		return zerolog.InfoLevel, nil
	case "debug", "info", "warn", "error":
		return zerolog.ParseLevel(strings.ToLower(name))
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}
