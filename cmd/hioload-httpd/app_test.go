package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-httpd/control"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"hioload-httpd"}, args...))
	return out.String(), err
}

func TestConfigDump_ShortFlags(t *testing.T) {
	out, err := run(t, "-p", "9100", "-t", "4", "-s", "3", "-m", "3", "-o", "1", "-l", "1", "-c", "1", "-a", "1",
		"config", "dump")
	require.NoError(t, err)

	var cfg control.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, 3, cfg.Store.Conns)
	assert.Equal(t, 3, cfg.Server.TrigMode)
	assert.True(t, cfg.Server.Linger)
	assert.True(t, cfg.Log.Async)
	assert.False(t, cfg.Log.Enabled)
	assert.Equal(t, control.StrategyReactor, cfg.Dispatch.Strategy)
}

func TestConfigDump_DefaultsAndFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	saved := filepath.Join(dir, "httpd.yaml")
	_, err := run(t, "--port", "9200", "config", "dump", "--out", saved)
	require.NoError(t, err)

	out, err := run(t, "--config", saved, "config", "dump")
	require.NoError(t, err)
	var cfg control.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, control.StrategyProactor, cfg.Dispatch.Strategy)
	assert.Equal(t, control.DefaultTimeSlot, cfg.Server.TimeSlot)
}

func TestInvalidFlagFails(t *testing.T) {
	_, err := run(t, "-m", "7", "config", "dump")
	assert.Error(t, err)
}

func TestUserAdd(t *testing.T) {
	store := filepath.Join(t.TempDir(), "users")
	args := []string{"--store-path", store, "-c", "1", "useradd"}

	out, err := run(t, append(args, "alice", "pw")...)
	require.NoError(t, err)
	assert.Contains(t, out, "user alice added")
	_, err = os.Stat(store)
	require.NoError(t, err)

	_, err = run(t, append(args, "alice", "other")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, append(args, "carol", "")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid name or password")

	_, err = run(t, append(args, "bob")...)
	assert.Error(t, err)
}
