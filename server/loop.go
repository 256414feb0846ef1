// File: server/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The event loop: accept, readiness routing, completions, idle ticks and the
// ordered shutdown.

package server

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/momentics/hioload-httpd/control"
	"github.com/momentics/hioload-httpd/internal/concurrency"
	"github.com/momentics/hioload-httpd/internal/httpconn"
	"github.com/momentics/hioload-httpd/internal/sigbridge"
	"github.com/momentics/hioload-httpd/internal/timer"
	"github.com/momentics/hioload-httpd/internal/transport"
	"github.com/momentics/hioload-httpd/reactor"
)

// Run opens the endpoint and serves until Shutdown or a stop signal. It
// returns nil after a requested stop and an error when startup or the
// multiplexer fails. Run may be called once.
func (s *Server) Run() error {
	if s.stopped() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if s.cfg.Server.PinLoop {
		if err := concurrency.PinCurrentThread(0); err != nil {
			s.log.Warn().Err(err).Msg("pin loop thread")
		}
		defer concurrency.UnpinCurrentThread()
	}

	defer s.teardown()
	if err := s.open(); err != nil {
		return err
	}
	close(s.ready)
	s.log.Info().
		Int("port", s.Port()).
		Str("strategy", s.strategy.Name()).
		Int("trigmode", s.cfg.Server.TrigMode).
		Int("workers", s.pool.Stats().Workers).
		Dur("timeslot", s.cfg.Server.TimeSlot).
		Msg("listening")

	return s.serve()
}

func (s *Server) stopped() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// open creates every loop resource. Whatever was created before a failure is
// released by teardown.
func (s *Server) open() error {
	var err error
	s.listener, err = transport.Listen(transport.ListenConfig{
		Addr:    s.cfg.Server.Addr,
		Port:    s.cfg.Server.Port,
		Backlog: s.cfg.Server.Backlog,
		Linger:  s.cfg.Server.Linger,
	})
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.port.Store(int32(s.listener.Port()))

	if s.poller, err = reactor.NewPoller(maxEvents); err != nil {
		return fmt.Errorf("poller: %w", err)
	}
	bridge, err := sigbridge.New(s.signals...)
	if err != nil {
		return fmt.Errorf("signal bridge: %w", err)
	}
	s.bridge.Store(bridge)
	if s.waker, err = sigbridge.NewWaker(); err != nil {
		return fmt.Errorf("completion waker: %w", err)
	}

	s.timers = timer.NewRegistry(s.cfg.Server.TimeSlot, timer.WithClock(s.now))
	s.done = newCompletionQueue(s.waker)
	s.pool = concurrency.NewThreadPool(concurrency.PoolConfig[WorkItem]{
		Workers:   s.cfg.Dispatch.Workers,
		Capacity:  s.cfg.Dispatch.Queue,
		Handle:    s.work,
		Recovered: s.recovered,
		PinCPUs:   s.cfg.Dispatch.PinWorkers,
	})

	listenMode := reactor.LevelTriggered
	if s.cfg.Server.EdgeListener() {
		listenMode = reactor.EdgeTriggered
	}
	regs := []struct {
		name string
		fd   int
		in   reactor.Interest
	}{
		{"listener", s.listener.Fd(), reactor.Interest{Events: reactor.Readable, Mode: listenMode}},
		{"signal bridge", bridge.Fd(), reactor.Interest{Events: reactor.Readable}},
		{"completion waker", s.waker.Fd(), reactor.Interest{Events: reactor.Readable}},
	}
	for _, r := range regs {
		if err := s.poller.Add(r.fd, r.in); err != nil {
			return fmt.Errorf("register %s: %w", r.name, err)
		}
	}

	s.registerGauges()
	bridge.ArmAlarm(s.cfg.Server.TimeSlot)
	return nil
}

func (s *Server) serve() error {
	bridge := s.bridge.Load()
	lfd, bfd, wfd := s.listener.Fd(), bridge.Fd(), s.waker.Fd()
	d := dispatch{s}

	for !s.stopping.Load() {
		events, err := s.poller.Wait(-1)
		if err != nil {
			return fmt.Errorf("event loop: %w", err)
		}

		var flags sigbridge.Flags
		for _, ev := range events {
			switch ev.Fd {
			case lfd:
				s.accept()
			case bfd:
				f, err := bridge.Drain()
				if err != nil {
					s.log.Error().Err(err).Msg("signal bridge")
				}
				flags.Timeout = flags.Timeout || f.Timeout
				flags.Stop = flags.Stop || f.Stop
			case wfd:
				if _, err := s.waker.Drain(); err != nil {
					s.log.Error().Err(err).Msg("completion waker")
				}
				s.done.drain(d.complete)
			default:
				s.route(d, ev)
			}
		}

		if flags.Timeout {
			if n := s.timers.Tick(); n > 0 {
				s.log.Debug().Int("evicted", n).Msg("idle tick")
			}
			s.syncTimers()
			s.metrics.TimerTicks.Inc()
			bridge.RearmAlarm()
		}
		if flags.Stop {
			s.log.Info().Msg("stop requested")
			return nil
		}
	}
	return nil
}

// accept takes one connection per wakeup on a level-triggered listener and
// drains the backlog on an edge-triggered one.
func (s *Server) accept() {
	edge := s.cfg.Server.EdgeListener()
	for {
		fd, peer, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, transport.ErrWouldBlock) {
				if ok, suppressed := s.acceptWarn.Allow(); ok {
					s.log.Warn().Err(err).Int64("suppressed", suppressed).Msg("accept")
				}
			}
			return
		}
		s.admit(fd, peer)
		if !edge {
			return
		}
	}
}

func (s *Server) admit(fd int, peer transport.Peer) {
	if s.live >= s.cfg.Server.MaxConns {
		transport.RejectBusy(fd)
		s.metrics.BusyRejects.Inc()
		if ok, suppressed := s.busyWarn.Allow(); ok {
			s.log.Warn().Int("live", s.live).Str("peer", peer.String()).
				Int64("suppressed", suppressed).Msg("connection ceiling reached")
		}
		return
	}

	c := httpconn.New(fd, peer, s.site, s.cfg.Server.EdgeConns())
	if err := s.poller.Add(fd, s.interest(reactor.Readable)); err != nil {
		c.Logger().Error().Err(err).Msg("register connection")
		_ = c.Close()
		return
	}
	c.Timer = s.timers.Add(fd, s.expired)
	s.syncTimers()
	s.conns[fd] = &client{conn: c}
	s.live++
	s.metrics.LiveConns.Set(float64(s.live))
	s.metrics.Accepted.Inc()
	c.Logger().Debug().Int("fd", fd).Msg("accepted")
}

// route routes readiness on a connection socket.
func (s *Server) route(d dispatch, ev reactor.Event) {
	cl, ok := s.conns[ev.Fd]
	if !ok || cl.inflight {
		return
	}
	switch {
	case ev.Flags&reactor.Error != 0:
		s.evict(cl, control.EvictError)
	case ev.Flags.Broken():
		s.evict(cl, control.EvictHangup)
	case ev.Flags&reactor.Readable != 0:
		s.strategy.Readable(d, cl.conn)
	case ev.Flags&reactor.Writable != 0:
		s.strategy.Writable(d, cl.conn)
	}
}

func (s *Server) interest(ev reactor.EventFlags) reactor.Interest {
	mode := reactor.LevelTriggered
	if s.cfg.Server.EdgeConns() {
		mode = reactor.EdgeTriggered
	}
	return reactor.Interest{Events: ev | reactor.PeerClosed, Mode: mode, OneShot: true}
}

// expired is the idle timer callback. The registry has already dropped the
// timer when it runs.
func (s *Server) expired(owner int) {
	if cl, ok := s.conns[owner]; ok {
		cl.conn.Logger().Debug().Msg("idle timeout")
		s.evict(cl, control.EvictIdle)
	}
}

// evict removes cl from every loop structure at once. A connection held by a
// worker is only shut down here; its completion closes the descriptor so the
// number cannot be reused while the worker still refers to it.
func (s *Server) evict(cl *client, reason string) {
	c := cl.conn
	fd := c.Fd()
	delete(s.conns, fd)
	s.timers.Delete(c.Timer)
	s.syncTimers()
	if err := s.poller.Remove(fd); err != nil && !errors.Is(err, reactor.ErrPollerClosed) {
		c.Logger().Debug().Err(err).Msg("deregister")
	}
	s.live--
	s.metrics.LiveConns.Set(float64(s.live))
	s.metrics.ObserveClose(reason)
	c.Logger().Debug().Str("reason", reason).Bool("inflight", cl.inflight).Msg("evicted")

	if cl.inflight {
		c.Abort()
		return
	}
	s.release(c)
}

func (s *Server) release(c *httpconn.Conn) {
	if err := c.Close(); err != nil {
		c.Logger().Debug().Err(err).Msg("close")
	}
}

func (s *Server) syncTimers() { s.timersN.Store(int64(s.timers.Len())) }

// work runs on a worker goroutine.
func (s *Server) work(item WorkItem) {
	if item.Conn == nil {
		return
	}
	s.done.push(s.strategy.Work(item))
}

func (s *Server) recovered(item WorkItem, r any) {
	s.metrics.WorkerPanics.Inc()
	s.log.Error().Interface("panic", r).Str("op", item.Op.String()).
		Bytes("stack", debug.Stack()).Msg("work item panicked")
	if item.Conn != nil {
		s.done.push(Completion{Conn: item.Conn, Action: httpconn.ActionClose})
	}
}

// teardown stops accepting, drains the workers, closes connections and
// finally the credential store.
func (s *Server) teardown() {
	defer close(s.closed)

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close listener")
		}
	}
	if s.pool != nil {
		s.pool.Close()
		st := s.pool.Stats()
		s.log.Debug().Int64("completed", st.Completed).Int64("rejected", st.Rejected).
			Int64("panics", st.Panics).Msg("workers drained")
	}
	if s.done != nil {
		s.done.drain(func(cp Completion) {
			if cl, ok := s.conns[cp.Conn.Fd()]; ok && cl.conn == cp.Conn {
				cl.inflight = false
				return
			}
			s.release(cp.Conn)
		})
	}
	for _, cl := range s.conns {
		s.evict(cl, control.EvictShutdown)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close credential store")
		}
	}
	if b := s.bridge.Load(); b != nil {
		_ = b.Close()
	}
	if s.waker != nil {
		_ = s.waker.Close()
	}
	if s.poller != nil {
		_ = s.poller.Close()
	}
	if path := s.cfg.Metrics.Textfile; path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			s.log.Warn().Err(err).Msg("metrics textfile")
		}
	}
	s.log.Info().Msg("server stopped")
}

// dispatch is the Dispatch handed to strategies; it only runs on the loop
// goroutine.
type dispatch struct{ s *Server }

func (d dispatch) lookup(c *httpconn.Conn) *client {
	if cl, ok := d.s.conns[c.Fd()]; ok && cl.conn == c {
		return cl
	}
	return nil
}

func (d dispatch) Submit(item WorkItem) {
	s := d.s
	cl := d.lookup(item.Conn)
	if cl == nil {
		return
	}
	cl.inflight = true
	if err := s.pool.Submit(item); err != nil {
		cl.inflight = false
		s.metrics.QueueDrops.Inc()
		if ok, suppressed := s.dropWarn.Allow(); ok {
			s.log.Warn().Err(err).Str("op", item.Op.String()).
				Int64("suppressed", suppressed).Msg("work item dropped")
		}
		s.evict(cl, control.EvictQueue)
	}
}

func (d dispatch) Touch(c *httpconn.Conn) {
	if d.lookup(c) != nil {
		d.s.timers.Adjust(c.Timer)
	}
}

func (d dispatch) Settle(c *httpconn.Conn, act httpconn.Action) {
	s := d.s
	cl := d.lookup(c)
	if cl == nil {
		return
	}
	var in reactor.Interest
	switch act {
	case httpconn.ActionRead:
		in = s.interest(reactor.Readable)
	case httpconn.ActionWrite:
		in = s.interest(reactor.Writable)
	case httpconn.ActionProcess:
		d.Submit(WorkItem{Conn: c, Op: OpProcess})
		return
	default:
		s.evict(cl, control.EvictClient)
		return
	}
	if err := s.poller.Modify(c.Fd(), in); err != nil {
		c.Logger().Debug().Err(err).Msg("re-arm")
		s.evict(cl, control.EvictError)
	}
}

// complete applies one worker result.
func (d dispatch) complete(cp Completion) {
	cl := d.lookup(cp.Conn)
	if cl == nil {
		// evicted while the worker held it
		d.s.release(cp.Conn)
		return
	}
	cl.inflight = false
	if cp.Active && cp.Action != httpconn.ActionClose {
		d.s.timers.Adjust(cp.Conn.Timer)
	}
	d.Settle(cp.Conn, cp.Action)
}
