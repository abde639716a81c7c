package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
	assert.Equal(t, "*", cfg.Server.AllowOrigins)
	assert.Equal(t, "parser.log", cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Console)
	assert.Empty(t, cfg.Rules.File)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccparse.yaml")
	doc := `server:
  addr: "127.0.0.1:9000"
  max_upload_mb: 8
log:
  file: /var/log/ccparse.log
  level: debug
watch:
  debounce: 250ms
  out: /tmp/out
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Server.MaxUploadMB)
	assert.Equal(t, "/var/log/ccparse.log", cfg.Log.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "/tmp/out", cfg.Watch.Out)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CCPARSE_SERVER_ADDR", ":9999")
	t.Setenv("CCPARSE_LOG_CONSOLE", "true")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.True(t, cfg.Log.Console)
}

func TestLoadRejectsInvalid(t *testing.T) {
	v := New()
	v.Set("server.max_upload_mb", 0)
	_, err := Load(v, "")
	require.Error(t, err)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
