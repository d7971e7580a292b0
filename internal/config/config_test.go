package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "~browser", cfg.Receiver.AppID)
	assert.Equal(t, "info", cfg.Receiver.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 9431, cfg.Daemon.Port)
	assert.Equal(t, 9439, cfg.Daemon.ChannelPort)
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
receiver {
    app-id "com.example.player"
    log-level "debug"
}
daemon {
    host "192.168.1.20"
    port 9531
    channel-port 9539
}
`)
	require.NoError(t, err)
	assert.Equal(t, "com.example.player", cfg.Receiver.AppID)
	assert.Equal(t, "debug", cfg.Receiver.LogLevel)
	assert.Equal(t, "192.168.1.20", cfg.Daemon.Host)
	assert.Equal(t, 9531, cfg.Daemon.Port)
	assert.Equal(t, 9539, cfg.Daemon.ChannelPort)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse(`
daemon {
    host "10.0.0.2"
}
`)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", cfg.Daemon.Host)
	assert.Equal(t, 9431, cfg.Daemon.Port)
	assert.Equal(t, 9439, cfg.Daemon.ChannelPort)
	assert.Equal(t, "~browser", cfg.Receiver.AppID)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(`daemon { host `)
	assert.Error(t, err)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFindFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path := filepath.Join(root, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`receiver { app-id "x" }`), 0o644))

	assert.Equal(t, path, FindFile(nested))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
receiver {
    log-level "warn"
}
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Receiver.LogLevel)
	assert.Equal(t, "~browser", cfg.Receiver.AppID)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.kdl"))
	assert.Error(t, err)
}
