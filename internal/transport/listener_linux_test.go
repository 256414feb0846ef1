//go:build linux

package transport_test

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-httpd/internal/transport"
)

func acceptEventually(t *testing.T, l *transport.Listener) (int, transport.Peer) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fd, peer, err := l.Accept()
		if err == nil {
			return fd, peer
		}
		require.ErrorIs(t, err, transport.ErrWouldBlock)
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return -1, transport.Peer{}
}

func TestListen_AcceptNonBlocking(t *testing.T) {
	l, err := transport.Listen(transport.ListenConfig{Addr: "127.0.0.1"})
	require.NoError(t, err)
	defer l.Close()
	require.NotZero(t, l.Port())

	_, _, err = l.Accept()
	assert.ErrorIs(t, err, transport.ErrWouldBlock)

	c, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", l.Port()))
	require.NoError(t, err)
	defer c.Close()

	fd, peer := acceptEventually(t, l)
	defer unix.Close(fd)
	assert.Equal(t, c.LocalAddr().String(), peer.String())

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.O_NONBLOCK)
}

func TestListen_LingerOption(t *testing.T) {
	for _, on := range []bool{false, true} {
		l, err := transport.Listen(transport.ListenConfig{Addr: "127.0.0.1", Linger: on})
		require.NoError(t, err)
		lg, err := unix.GetsockoptLinger(l.Fd(), unix.SOL_SOCKET, unix.SO_LINGER)
		require.NoError(t, err)
		assert.Equal(t, on, lg.Onoff != 0)
		require.NoError(t, l.Close())
	}
}

func TestRejectBusy_SendsMessage(t *testing.T) {
	l, err := transport.Listen(transport.ListenConfig{Addr: "127.0.0.1"})
	require.NoError(t, err)
	defer l.Close()

	c, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", l.Port()))
	require.NoError(t, err)
	defer c.Close()

	fd, _ := acceptEventually(t, l)
	transport.RejectBusy(fd)

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, transport.BusyMessage, string(got))
}

func TestListen_BadAddress(t *testing.T) {
	_, err := transport.Listen(transport.ListenConfig{Addr: "::1"})
	assert.Error(t, err)
}

func TestListener_CloseIdempotent(t *testing.T) {
	l, err := transport.Listen(transport.ListenConfig{Addr: "127.0.0.1"})
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	_, _, err = l.Accept()
	assert.ErrorIs(t, err, transport.ErrListenerClosed)
}
