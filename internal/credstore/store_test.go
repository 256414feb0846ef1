package credstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openMem(t *testing.T, conns int, timeout time.Duration) *Store {
	t.Helper()
	s, err := Open(Options{Conns: conns, AcquireTimeout: timeout, Cost: bcrypt.MinCost})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRegisterAndVerify(t *testing.T) {
	s := openMem(t, 2, 0)
	ctx := context.Background()

	err := s.WithSession(ctx, func(sess *Session) error {
		require.NoError(t, sess.Register("alice", "secret"))
		assert.ErrorIs(t, sess.Register("alice", "other"), ErrUserExists)
		assert.ErrorIs(t, sess.Register("", "x"), ErrInvalidUser)

		assert.NoError(t, sess.Verify("alice", "secret"))
		assert.ErrorIs(t, sess.Verify("alice", "wrong"), ErrInvalidCredentials)
		assert.ErrorIs(t, sess.Verify("bob", "secret"), ErrInvalidCredentials)
		assert.ErrorIs(t, sess.Verify("", ""), ErrInvalidCredentials)

		ok, err := sess.Exists("alice")
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, s.Stats().Active)
}

func TestWithSession_AlwaysReleases(t *testing.T) {
	s := openMem(t, 1, 0)
	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		err := s.WithSession(context.Background(), func(*Session) error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	st := s.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Zero(t, st.Active)
}

func TestAcquire_TimesOutWhenExhausted(t *testing.T) {
	s := openMem(t, 1, 20*time.Millisecond)
	sess, err := s.Acquire(context.Background())
	require.NoError(t, err)

	_, err = s.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, int64(1), s.Stats().Timeouts)

	s.Release(sess)
	sess, err = s.Acquire(context.Background())
	require.NoError(t, err)
	s.Release(sess)
}

func TestAcquire_BlocksUntilRelease(t *testing.T) {
	s := openMem(t, 1, 0)
	held, err := s.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		sess, err := s.Acquire(context.Background())
		if err == nil {
			s.Release(sess)
		}
		got <- err
	}()

	select {
	case <-got:
		t.Fatal("acquire did not block")
	case <-time.After(30 * time.Millisecond):
	}
	s.Release(held)
	require.NoError(t, <-got)
}

func TestClose_WakesWaiters(t *testing.T) {
	s, err := Open(Options{Conns: 1, Cost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = s.Acquire(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Acquire(context.Background())
		assert.ErrorIs(t, err, ErrPoolClosed)
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())
	wg.Wait()

	_, err = s.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	s.Release(nil)
}

func TestOpen_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Path: dir, Conns: 1, Cost: bcrypt.MinCost})
	require.NoError(t, err)
	require.NoError(t, s.WithSession(context.Background(), func(sess *Session) error {
		return sess.Register("carol", "pw")
	}))
	require.NoError(t, s.Close())

	s, err = Open(Options{Path: dir, Conns: 1, Cost: bcrypt.MinCost})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.WithSession(context.Background(), func(sess *Session) error {
		return sess.Verify("carol", "pw")
	}))
}

func TestLoginRegister(t *testing.T) {
	s := openMem(t, 1, 0)
	ctx := context.Background()

	ok, err := s.Login(ctx, "dave", "pw")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Register(ctx, "dave", "pw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Register(ctx, "dave", "pw2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Login(ctx, "dave", "pw")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Close())
	_, err = s.Login(ctx, "dave", "pw")
	assert.ErrorIs(t, err, ErrPoolClosed)
}
