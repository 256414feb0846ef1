// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-httpd/api"
	"github.com/momentics/hioload-httpd/control"
	"github.com/momentics/hioload-httpd/internal/concurrency"
	"github.com/momentics/hioload-httpd/internal/credstore"
	"github.com/momentics/hioload-httpd/internal/httpconn"
	"github.com/momentics/hioload-httpd/internal/logging"
	"github.com/momentics/hioload-httpd/internal/sigbridge"
	"github.com/momentics/hioload-httpd/internal/timer"
	"github.com/momentics/hioload-httpd/internal/transport"
	"github.com/momentics/hioload-httpd/pool"
	"github.com/momentics/hioload-httpd/reactor"
)

const (
	maxEvents     = 1024
	readChunk     = 4096
	warnInterval  = time.Second
	warnBurst     = 5
	retainedChunk = 64 * 1024
)

// Server owns the listening socket, the event loop and the worker pool.
type Server struct {
	cfg      *control.Config
	log      zerolog.Logger
	metrics  *control.Metrics
	store    *credstore.Store
	auth     httpconn.Authenticator
	strategy Strategy
	signals  []os.Signal
	now      func() time.Time
	site     *httpconn.Site

	running  atomic.Bool
	stopping atomic.Bool
	bridge   atomic.Pointer[sigbridge.Bridge]
	ready    chan struct{}
	closed   chan struct{}
	port     atomic.Int32
	timersN  atomic.Int64

	acceptWarn *logging.Limited
	busyWarn   *logging.Limited
	dropWarn   *logging.Limited

	// loop goroutine only
	listener *transport.Listener
	poller   *reactor.Poller
	waker    *sigbridge.Waker
	conns    map[int]*client
	live     int
	timers   *timer.Registry
	pool     *concurrency.ThreadPool[WorkItem]
	done     *completionQueue
}

var _ api.GracefulShutdown = (*Server)(nil)

// New builds a Server from a verified configuration.
func New(cfg *control.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = control.Default()
	}
	s := &Server{
		cfg:        cfg,
		log:        zerolog.Nop(),
		signals:    []os.Signal{syscall.SIGTERM, syscall.SIGINT},
		now:        time.Now,
		ready:      make(chan struct{}),
		closed:     make(chan struct{}),
		acceptWarn: logging.NewLimited(warnInterval, warnBurst),
		busyWarn:   logging.NewLimited(warnInterval, warnBurst),
		dropWarn:   logging.NewLimited(warnInterval, warnBurst),
		conns:      make(map[int]*client),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = control.NewMetrics()
	}
	if s.strategy == nil {
		st, err := NewStrategy(cfg.Dispatch.Strategy)
		if err != nil {
			return nil, api.NewError(api.ErrCodeInvalidArgument, err.Error()).
				WithContext("dispatch.strategy", cfg.Dispatch.Strategy)
		}
		s.strategy = st
	}
	s.log = s.log.With().Str("component", "server").Logger()

	s.site = &httpconn.Site{
		Root:    cfg.Server.DocRoot,
		Index:   cfg.Server.Index,
		MaxRead: cfg.Server.ReadBuffer,
		Auth:    s.auth,
		Buffers: pool.NewBytePool(readChunk, retainedChunk),
		Log:     s.log,
		Observe: s.metrics.ObserveResponse,
	}
	return s, nil
}

// Strategy returns the dispatch strategy in use.
func (s *Server) Strategy() Strategy { return s.strategy }

// Metrics returns the collectors the server updates.
func (s *Server) Metrics() *control.Metrics { return s.metrics }

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Done is closed once Run has released every resource.
func (s *Server) Done() <-chan struct{} { return s.closed }

// Port is the bound port, valid after Ready.
func (s *Server) Port() int { return int(s.port.Load()) }

// Shutdown asks Run to return after the current event batch. It is safe to
// call from any goroutine and more than once.
func (s *Server) Shutdown() error {
	s.stopping.Store(true)
	if b := s.bridge.Load(); b != nil {
		b.Send(syscall.SIGTERM)
	}
	return nil
}

type sampled struct {
	name, help string
	counter    bool
	fn         func() float64
}

// registerGauges exposes loop and pool state sampled at scrape time.
func (s *Server) registerGauges() {
	reg := []sampled{
		{"queue_pending", "Work items waiting for a worker.", false,
			func() float64 { return float64(s.pool.Stats().Pending) }},
		{"workers", "Worker goroutines.", false,
			func() float64 { return float64(s.pool.Stats().Workers) }},
		{"timers_armed", "Idle timers in the registry.", false,
			func() float64 { return float64(s.timersN.Load()) }},
		{"completions_pending", "Completions not yet observed by the loop.", false,
			func() float64 { return float64(s.done.len()) }},
	}
	if s.store != nil {
		reg = append(reg,
			sampled{"store_sessions_active", "Credential store sessions in use.", false,
				func() float64 { return float64(s.store.Stats().Active) }},
			sampled{"store_acquire_timeouts_total", "Credential store acquisitions that timed out.", true,
				func() float64 { return float64(s.store.Stats().Timeouts) }},
		)
	}
	for _, g := range reg {
		var err error
		if g.counter {
			err = s.metrics.CounterFunc(g.name, g.help, g.fn)
		} else {
			err = s.metrics.GaugeFunc(g.name, g.help, g.fn)
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("metrics")
		}
	}
}
