//go:build linux

package server

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-httpd/control"
	"github.com/momentics/hioload-httpd/internal/httpconn"
	"github.com/momentics/hioload-httpd/internal/transport"
)

// recorder is a Dispatch that remembers what a strategy asked for.
type recorder struct {
	submitted []WorkItem
	touched   int
	settled   []httpconn.Action
}

func (r *recorder) Submit(item WorkItem) {
	r.submitted = append(r.submitted, item)
}

func (r *recorder) Touch(*httpconn.Conn) {
	r.touched++
}

func (r *recorder) Settle(_ *httpconn.Conn, act httpconn.Action) {
	r.settled = append(r.settled, act)
}

var testPages = map[string]string{
	"index.html":         "<html>index</html>",
	"log.html":           "<html>login</html>",
	"register.html":      "<html>register</html>",
	"welcome.html":       "<html>welcome</html>",
	"logError.html":      "<html>bad login</html>",
	"registerError.html": "<html>bad register</html>",
}

func docRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range testPages {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	return root
}

func pairConn(t *testing.T) (*httpconn.Conn, int) {
	t.Helper()
	return pairConnIn(t, docRoot(t))
}

func pairConnIn(t *testing.T, root string) (*httpconn.Conn, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	site := &httpconn.Site{Root: root, Index: "index.html", Log: zerolog.Nop()}
	c := httpconn.New(fds[0], transport.Peer{}, site, false)
	t.Cleanup(func() {
		_ = c.Close()
		_ = unix.Close(fds[1])
	})
	return c, fds[1]
}

func write(t *testing.T, fd int, s string) {
	t.Helper()
	_, err := unix.Write(fd, []byte(s))
	require.NoError(t, err)
}

const keepAliveGet = "GET /index.html HTTP/1.1\r\nConnection: keep-alive\r\n\r\n"

func TestNewStrategy(t *testing.T) {
	for _, tc := range []struct {
		name string
		want string
	}{
		{control.StrategyProactor, control.StrategyProactor},
		{control.StrategyReactor, control.StrategyReactor},
		{"", control.StrategyProactor},
	} {
		st, err := NewStrategy(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.want, st.Name())
	}
	_, err := NewStrategy("threads")
	assert.Error(t, err)
}

func TestProactor_ReadOnLoopProcessOnWorker(t *testing.T) {
	c, peer := pairConn(t)
	rec := &recorder{}
	write(t, peer, keepAliveGet)

	Proactor{}.Readable(rec, c)
	require.Len(t, rec.submitted, 1)
	assert.Equal(t, OpProcess, rec.submitted[0].Op)
	assert.Equal(t, 1, rec.touched)

	cp := Proactor{}.Work(rec.submitted[0])
	assert.Equal(t, httpconn.ActionWrite, cp.Action)
	assert.False(t, cp.Active, "the loop refreshed the timer already")

	Proactor{}.Writable(rec, c)
	assert.Equal(t, []httpconn.Action{httpconn.ActionRead}, rec.settled)
	assert.Equal(t, 2, rec.touched)
}

func TestProactor_PartialWriteRefreshesTimer(t *testing.T) {
	root := docRoot(t)
	content := bytes.Repeat([]byte("x"), 4<<20)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.bin"), content, 0o644))
	c, peer := pairConnIn(t, root)
	write(t, peer, "GET /big.bin HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")

	rec := &recorder{}
	Proactor{}.Readable(rec, c)
	require.Len(t, rec.submitted, 1)
	require.Equal(t, httpconn.ActionWrite, Proactor{}.Work(rec.submitted[0]).Action)
	touched := rec.touched

	Proactor{}.Writable(rec, c)
	assert.Equal(t, []httpconn.Action{httpconn.ActionWrite}, rec.settled)
	assert.Equal(t, touched+1, rec.touched)

	// nothing drained, so the next attempt makes no progress
	Proactor{}.Writable(rec, c)
	assert.Equal(t, []httpconn.Action{httpconn.ActionWrite, httpconn.ActionWrite}, rec.settled)
	assert.Equal(t, touched+1, rec.touched)
}

func TestProactor_PeerClosedSettlesClose(t *testing.T) {
	c, peer := pairConn(t)
	require.NoError(t, unix.Shutdown(peer, unix.SHUT_WR))
	rec := &recorder{}

	Proactor{}.Readable(rec, c)
	assert.Empty(t, rec.submitted)
	assert.Zero(t, rec.touched)
	assert.Equal(t, []httpconn.Action{httpconn.ActionClose}, rec.settled)
}

func TestReactor_WorkerDoesIO(t *testing.T) {
	c, peer := pairConn(t)
	rec := &recorder{}
	write(t, peer, keepAliveGet)

	Reactor{}.Readable(rec, c)
	require.Len(t, rec.submitted, 1)
	assert.Equal(t, OpRead, rec.submitted[0].Op)
	assert.Zero(t, rec.touched, "timers move only on completion")

	cp := Reactor{}.Work(rec.submitted[0])
	assert.Equal(t, httpconn.ActionRead, cp.Action)
	assert.True(t, cp.Active)

	buf := make([]byte, 512)
	n, err := unix.Read(peer, buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), testPages["index.html"])
}

func TestReactor_PipelinedRequestsInOneItem(t *testing.T) {
	c, peer := pairConn(t)
	write(t, peer, keepAliveGet+keepAliveGet)

	cp := Reactor{}.Work(WorkItem{Conn: c, Op: OpRead})
	assert.Equal(t, httpconn.ActionRead, cp.Action)

	buf := make([]byte, 1024)
	n, err := unix.Read(peer, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(buf[:n]), "200 OK"))
}

func TestReactor_ReadErrorCloses(t *testing.T) {
	c, peer := pairConn(t)
	require.NoError(t, unix.Shutdown(peer, unix.SHUT_WR))

	cp := Reactor{}.Work(WorkItem{Conn: c, Op: OpRead})
	assert.Equal(t, httpconn.ActionClose, cp.Action)
	assert.False(t, cp.Active)
}
