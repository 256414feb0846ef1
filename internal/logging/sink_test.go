package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNop(t *testing.T) {
	s, err := New(Options{Enabled: false})
	require.NoError(t, err)
	log := s.Logger()
	log.Error().Msg("dropped")
	require.NoError(t, s.Close())
}

func TestNew_SyncFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "server.log")
	s, err := New(Options{Enabled: true, Level: "info", File: path})
	require.NoError(t, err)

	log := s.Logger()
	log.Debug().Msg("hidden")
	log.Info().Str("conn", "abc").Msg("accepted")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"accepted"`)
	assert.Contains(t, out, `"conn":"abc"`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_AsyncFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "async.log")
	s, err := New(Options{Enabled: true, Async: true, Level: "debug", File: path, FlushInterval: time.Millisecond})
	require.NoError(t, err)

	log := s.Logger()
	for i := 0; i < 50; i++ {
		log.Debug().Int("i", i).Msg("tick")
	}
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50-int(s.Dropped()), strings.Count(string(data), `"message":"tick"`))
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(Options{Enabled: true, Level: "verbose"})
	assert.Error(t, err)
	_, err = New(Options{Enabled: true, Format: "xml"})
	assert.Error(t, err)
}

func TestLimited_CountsSuppressed(t *testing.T) {
	l := NewLimited(50*time.Millisecond, 1)
	ok, n := l.Allow()
	require.True(t, ok)
	assert.Zero(t, n)

	for i := 0; i < 5; i++ {
		ok, _ = l.Allow()
		assert.False(t, ok)
	}
	time.Sleep(80 * time.Millisecond)
	ok, n = l.Allow()
	require.True(t, ok)
	assert.Equal(t, int64(5), n)
}
