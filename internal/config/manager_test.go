package config

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerLoadsInitialConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8081
`)

	mgr, err := NewManager(path, discardLogger())
	require.NoError(t, err)
	defer mgr.Close()

	assert.Equal(t, 8081, mgr.Get().Server.Port)
}

func TestManagerRejectsInvalidInitialConfig(t *testing.T) {
	path := writeConfigFile(t, `
redis:
  addr: ""
`)

	_, err := NewManager(path, discardLogger())
	require.Error(t, err)
}

func TestManagerReloadSwapsConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
`)

	mgr, err := NewManager(path, discardLogger())
	require.NoError(t, err)
	defer mgr.Close()

	var notified *Config
	mgr.OnChange(func(c *Config) { notified = c })

	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
`), 0644))

	require.NoError(t, mgr.Reload())
	assert.Equal(t, 9090, mgr.Get().Server.Port)
	require.NotNil(t, notified)
	assert.Equal(t, 9090, notified.Server.Port)
}

func TestManagerReloadKeepsCurrentOnError(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
`)

	mgr, err := NewManager(path, discardLogger())
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, os.WriteFile(path, []byte(`server: {port: -5}`), 0644))

	require.Error(t, mgr.Reload())
	assert.Equal(t, 8080, mgr.Get().Server.Port)
}
