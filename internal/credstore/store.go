// File: internal/credstore/store.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package credstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("credential store is closed")
	// ErrExhausted is returned when no session became free in time.
	ErrExhausted = errors.New("credential store sessions exhausted")
	// ErrUserExists is returned by Register for a taken name.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Verify for unknown users or wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUser is returned by Register for empty names or passwords.
	ErrInvalidUser = errors.New("user name and password are required")
)

const userPrefix = "user/"

// Options configures Open.
type Options struct {
	// Path is the database directory. Empty keeps everything in memory.
	Path string
	// Conns is the number of sessions.
	Conns int
	// AcquireTimeout bounds Acquire; zero waits until the context is done.
	AcquireTimeout time.Duration
	// Cost is the bcrypt cost.
	Cost   int
	Logger zerolog.Logger
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Total    int
	Active   int64
	Timeouts int64
}

// Store is the session pool over one badger database.
type Store struct {
	db      *badger.DB
	free    chan *Session
	done    chan struct{}
	total   int
	cost    int
	timeout time.Duration
	log     zerolog.Logger

	closeOnce sync.Once
	active    atomic.Int64
	timeouts  atomic.Int64
}

// Session is one unit of store access. It is only valid between Acquire and Release.
type Session struct {
	store *Store
	id    int
}

// Open opens the database and creates the sessions.
func Open(opts Options) (*Store, error) {
	if opts.Conns <= 0 {
		opts.Conns = 1
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	var bopts badger.Options
	if opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts.Logger = &badgerLogger{log: opts.Logger}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("credstore: open db: %w", err)
	}
	s := &Store{
		db:      db,
		free:    make(chan *Session, opts.Conns),
		done:    make(chan struct{}),
		total:   opts.Conns,
		cost:    opts.Cost,
		timeout: opts.AcquireTimeout,
		log:     opts.Logger,
	}
	for i := 0; i < opts.Conns; i++ {
		s.free <- &Session{store: s, id: i}
	}
	s.log.Info().Str("path", opts.Path).Int("conns", opts.Conns).Msg("credential store opened")
	return s, nil
}

// Acquire takes a free session, waiting while all are in use.
func (s *Store) Acquire(ctx context.Context) (*Session, error) {
	select {
	case <-s.done:
		return nil, ErrPoolClosed
	default:
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	select {
	case sess := <-s.free:
		s.active.Add(1)
		return sess, nil
	case <-s.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		s.timeouts.Add(1)
		return nil, fmt.Errorf("%w: %w", ErrExhausted, ctx.Err())
	}
}

// Release returns sess to the pool. Releasing nil is a no-op.
func (s *Store) Release(sess *Session) {
	if sess == nil || sess.store != s {
		return
	}
	s.active.Add(-1)
	s.free <- sess
}

// WithSession runs fn with an acquired session and always releases it.
func (s *Store) WithSession(ctx context.Context, fn func(*Session) error) error {
	sess, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release(sess)
	return fn(sess)
}

// Stats returns pool counters.
func (s *Store) Stats() Stats {
	return Stats{
		Total:    s.total,
		Active:   s.active.Load(),
		Timeouts: s.timeouts.Load(),
	}
}

// Close wakes waiting acquirers and closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.db.Close()
	})
	return err
}

// Verify checks user and password.
func (sess *Session) Verify(user, password string) error {
	if user == "" {
		return ErrInvalidCredentials
	}
	var hash []byte
	err := sess.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + user))
		if err != nil {
			return err
		}
		hash, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("credstore: lookup %q: %w", user, err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register stores a new user.
func (sess *Session) Register(user, password string) error {
	if user == "" || password == "" {
		return ErrInvalidUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), sess.store.cost)
	if err != nil {
		return fmt.Errorf("credstore: hash password: %w", err)
	}
	key := []byte(userPrefix + user)
	err = sess.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, hash)
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrUserExists
	}
	return err
}

// Exists reports whether user is registered.
func (sess *Session) Exists(user string) (bool, error) {
	err := sess.store.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(userPrefix + user))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// badgerLogger adapts zerolog to badger's Logger interface.
type badgerLogger struct {
	log zerolog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
