//go:build linux

package reactor_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-httpd/reactor"
)

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPoller_ReportsReadable(t *testing.T) {
	p, err := reactor.NewPoller(16)
	require.NoError(t, err)
	defer p.Close()

	r, w := newPipe(t)
	require.NoError(t, p.Add(r, reactor.Interest{Events: reactor.Readable}))

	evs, err := p.Wait(0)
	require.NoError(t, err)
	require.Empty(t, evs)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	evs, err = p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, r, evs[0].Fd)
	require.NotZero(t, evs[0].Flags&reactor.Readable)
	require.False(t, evs[0].Flags.Broken())
}

func TestPoller_OneShotNeedsRearm(t *testing.T) {
	p, err := reactor.NewPoller(16)
	require.NoError(t, err)
	defer p.Close()

	r, w := newPipe(t)
	in := reactor.Interest{Events: reactor.Readable, OneShot: true}
	require.NoError(t, p.Add(r, in))
	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	evs, err := p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, evs, 1)

	// level-triggered data is still pending, but the descriptor is disarmed
	evs, err = p.Wait(50)
	require.NoError(t, err)
	require.Empty(t, evs)

	require.NoError(t, p.Modify(r, in))
	evs, err = p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, evs, 1)
}

func TestPoller_EdgeTriggeredReportsOnce(t *testing.T) {
	p, err := reactor.NewPoller(16)
	require.NoError(t, err)
	defer p.Close()

	r, w := newPipe(t)
	require.NoError(t, p.Add(r, reactor.Interest{Events: reactor.Readable, Mode: reactor.EdgeTriggered}))
	_, err = unix.Write(w, []byte("abc"))
	require.NoError(t, err)

	evs, err := p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, evs, 1)

	evs, err = p.Wait(50)
	require.NoError(t, err)
	require.Empty(t, evs)
}

func TestPoller_HangupOnPeerClose(t *testing.T) {
	p, err := reactor.NewPoller(16)
	require.NoError(t, err)
	defer p.Close()

	var sp [2]int
	sp, err = unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(sp[0])

	require.NoError(t, p.Add(sp[0], reactor.Interest{Events: reactor.Readable | reactor.PeerClosed}))
	require.NoError(t, unix.Close(sp[1]))

	evs, err := p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.True(t, evs[0].Flags.Broken())
}

func TestPoller_Closed(t *testing.T) {
	p, err := reactor.NewPoller(0)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.Wait(0)
	require.ErrorIs(t, err, reactor.ErrPollerClosed)
	require.ErrorIs(t, p.Add(0, reactor.Interest{}), reactor.ErrPollerClosed)
}
