//go:build linux
// +build linux

// File: internal/sigbridge/bridge_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sigbridge

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Flags is what a drained batch of signal bytes asks the loop to do.
type Flags struct {
	// Timeout is set by SIGALRM.
	Timeout bool
	// Stop is set by SIGTERM or SIGINT.
	Stop bool
}

// Bridge is a self-pipe fed by os/signal and by the alarm timer.
type Bridge struct {
	rfd, wfd int
	sigCh    chan os.Signal
	done     chan struct{}
	wg       sync.WaitGroup

	// mu orders Send against Close so no byte reaches a closed or reused fd.
	mu     sync.RWMutex
	closed bool

	alarmMu sync.Mutex
	alarm   *time.Timer
	period  time.Duration
}

// New creates the pipe and starts forwarding the given signals into it.
// SIGPIPE is ignored for the whole process.
func New(signals ...os.Signal) (*Bridge, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("self-pipe: %w", err)
	}
	b := &Bridge{
		rfd:   fds[0],
		wfd:   fds[1],
		sigCh: make(chan os.Signal, 16),
		done:  make(chan struct{}),
	}
	signal.Ignore(syscall.SIGPIPE)
	if len(signals) > 0 {
		signal.Notify(b.sigCh, signals...)
	}
	b.wg.Add(1)
	go b.forward()
	return b, nil
}

// Fd is the read end to register with the poller.
func (b *Bridge) Fd() int { return b.rfd }

func (b *Bridge) forward() {
	defer b.wg.Done()
	for {
		select {
		case s := <-b.sigCh:
			if sig, ok := s.(syscall.Signal); ok {
				b.Send(sig)
			}
		case <-b.done:
			return
		}
	}
}

// Send writes sig into the pipe. A full pipe drops the byte; the loop only
// needs to learn that the signal happened at least once.
func (b *Bridge) Send(sig syscall.Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	msg := [1]byte{byte(sig)}
	_, _ = unix.Write(b.wfd, msg[:])
}

// ArmAlarm schedules one SIGALRM delivery after period.
func (b *Bridge) ArmAlarm(period time.Duration) {
	b.alarmMu.Lock()
	defer b.alarmMu.Unlock()
	b.period = period
	if b.alarm != nil {
		b.alarm.Stop()
	}
	b.alarm = time.AfterFunc(period, func() { b.Send(syscall.SIGALRM) })
}

// RearmAlarm schedules the next delivery with the last armed period.
func (b *Bridge) RearmAlarm() {
	b.alarmMu.Lock()
	defer b.alarmMu.Unlock()
	if b.alarm == nil || b.period <= 0 {
		return
	}
	b.alarm.Reset(b.period)
}

// Drain reads every pending byte and decodes the signals seen.
func (b *Bridge) Drain() (Flags, error) {
	var f Flags
	var buf [1024]byte
	for {
		n, err := unix.Read(b.rfd, buf[:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return f, nil
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return f, fmt.Errorf("drain self-pipe: %w", err)
		}
		if n == 0 {
			return f, nil
		}
		for _, c := range buf[:n] {
			switch syscall.Signal(c) {
			case syscall.SIGALRM:
				f.Timeout = true
			case syscall.SIGTERM, syscall.SIGINT:
				f.Stop = true
			}
		}
		if n < len(buf) {
			return f, nil
		}
	}
}

// Close stops forwarding and the alarm and closes both pipe ends.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	signal.Stop(b.sigCh)
	close(b.done)
	b.wg.Wait()
	b.alarmMu.Lock()
	if b.alarm != nil {
		b.alarm.Stop()
	}
	b.alarmMu.Unlock()
	return errors.Join(unix.Close(b.wfd), unix.Close(b.rfd))
}
