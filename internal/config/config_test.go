package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "saint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Dialect)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowQuery)
	assert.Equal(t, 10, cfg.Admin.ItemsPerPage)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "/fm", cfg.FM.Prefix)
	assert.Empty(t, cfg.FM.Roots)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
server:
  addr: ":9000"
  session_secret: secret
database:
  dialect: postgres
  dsn: postgres://localhost/saint
  slow_query: 1s
admin:
  items_per_page: 25
fm:
  roots:
    - path: /srv/files
      label: Files
      upload_max_size: 1024
    - path: /srv/media
`)
	t.Setenv("SAINT_ADMIN_ITEMS_PER_PAGE", "50")
	t.Setenv("SAINT_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("dsn", "", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7000"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.SessionSecret)
	assert.Equal(t, "postgres://localhost/saint", cfg.Database.DSN, "unset flags keep file values")
	assert.Equal(t, time.Second, cfg.Database.SlowQuery)
	assert.Equal(t, 50, cfg.Admin.ItemsPerPage)
	assert.Equal(t, "warn", cfg.Log.Level)
	require.Len(t, cfg.FM.Roots, 2)
	assert.Equal(t, RootConfig{Path: "/srv/files", Label: "Files", UploadMaxSize: 1024}, cfg.FM.Roots[0])
	assert.Equal(t, "/srv/media", cfg.FM.Roots[1].Path)
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
database:
  dialect: oracle
admin:
  items_per_page: 0
log:
  level: loud
fm:
  roots:
    - label: nowhere
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database dialect "oracle"`)
	assert.Contains(t, err.Error(), "items_per_page should be positive")
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
	assert.Contains(t, err.Error(), "fm.roots[0].path is required")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var (
		buf   bytes.Buffer
		level slog.LevelVar
	)
	logger := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"}, &level)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	level.Set(slog.LevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "admin:\n  items_per_page: 5\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, nil, slog.New(slog.DiscardHandler), func(c *Config) { changes <- c })
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("admin:\n  items_per_page: 7\n"), 0o644))
	select {
	case got := <-changes:
		assert.Equal(t, 7, got.Admin.ItemsPerPage)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the file changed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "saint.yaml"), nil, slog.New(slog.DiscardHandler), func(*Config) {})
	require.Error(t, err)
}
