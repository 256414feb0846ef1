// control/verify.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"errors"
	"strings"
	"time"

	"github.com/momentics/hioload-httpd/api"
)

// Verify checks every section and returns all violations joined.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyDispatch(&cfg.Dispatch),
		verifyLog(&cfg.Log),
		verifyStore(&cfg.Store),
	)
}

func invalid(key string, value any, msg string) error {
	return api.NewError(api.ErrCodeInvalidArgument, key+": "+msg).
		WithContext("key", key).
		WithContext("value", value)
}

func verifyServer(s *ServerSection) error {
	var errs []error
	if s.Port < 1024 || s.Port > 65535 {
		errs = append(errs, invalid("server.port", s.Port, "must be in 1024..65535"))
	}
	if s.TrigMode < 0 || s.TrigMode > 3 {
		errs = append(errs, invalid("server.trigmode", s.TrigMode, "must be in 0..3"))
	}
	if s.MaxConns < 1 {
		errs = append(errs, invalid("server.maxconns", s.MaxConns, "must be positive"))
	}
	if s.TimeSlot < time.Second {
		errs = append(errs, invalid("server.timeslot", s.TimeSlot, "must be at least 1s"))
	}
	if s.DocRoot == "" {
		errs = append(errs, invalid("server.docroot", s.DocRoot, "is required"))
	}
	if s.Index == "" || strings.ContainsRune(s.Index, '/') {
		errs = append(errs, invalid("server.index", s.Index, "must be a plain file name"))
	}
	if s.ReadBuffer < 1024 {
		errs = append(errs, invalid("server.readbuffer", s.ReadBuffer, "must be at least 1024"))
	}
	return errors.Join(errs...)
}

func verifyDispatch(d *DispatchSection) error {
	var errs []error
	switch d.Strategy {
	case StrategyProactor, StrategyReactor:
	default:
		errs = append(errs, invalid("dispatch.strategy", d.Strategy, "must be proactor or reactor"))
	}
	if d.Workers < 1 || d.Workers > 100 {
		errs = append(errs, invalid("dispatch.workers", d.Workers, "must be in 1..100"))
	}
	if d.Queue < 1 {
		errs = append(errs, invalid("dispatch.queue", d.Queue, "must be positive"))
	}
	return errors.Join(errs...)
}

func verifyLog(l *LogSection) error {
	var errs []error
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, invalid("log.level", l.Level, "must be debug, info, warn or error"))
	}
	switch strings.ToLower(l.Format) {
	case "json", "console":
	default:
		errs = append(errs, invalid("log.format", l.Format, "must be json or console"))
	}
	return errors.Join(errs...)
}

func verifyStore(s *StoreSection) error {
	var errs []error
	if s.Conns < 1 || s.Conns > 100 {
		errs = append(errs, invalid("store.conns", s.Conns, "must be in 1..100"))
	}
	if s.AcquireTimeout < 0 {
		errs = append(errs, invalid("store.acquiretimeout", s.AcquireTimeout, "must not be negative"))
	}
	if s.Cost < 4 || s.Cost > 31 {
		errs = append(errs, invalid("store.cost", s.Cost, "must be in 4..31"))
	}
	return errors.Join(errs...)
}
