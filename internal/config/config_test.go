package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Persistence.Driver)
	assert.True(t, cfg.Observability.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Observability.Metrics.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_overrides_defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 10s
layouts:
  directories: [/opt/layouts]
  hot_reload: true
persistence:
  driver: sqlite
  path: /var/lib/slate/choices.db
observability:
  log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Layouts.HotReload)
	assert.Equal(t, []string{"/opt/layouts"}, cfg.Layouts.Directories)
	assert.Equal(t, "sqlite", cfg.Persistence.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)

	// Untouched fields keep their defaults.
	assert.Equal(t, 5*time.Minute, cfg.Render.CacheTTL)
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoad_malformed_yaml(t *testing.T) {
	path := writeConfig(t, "server: [")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_env_overrides(t *testing.T) {
	t.Setenv("SLATE_SERVER_PORT", "7070")
	t.Setenv("SLATE_LAYOUT_DIRS", "/a,/b")
	t.Setenv("SLATE_PERSISTENCE_DRIVER", "sqlite")
	t.Setenv("SLATE_PERSISTENCE_PATH", "/tmp/slate.db")
	t.Setenv("SLATE_LOG_LEVEL", "warn")

	path := writeConfig(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env should win over file")
	assert.Equal(t, []string{"/a", "/b"}, cfg.Layouts.Directories)
	assert.Equal(t, "sqlite", cfg.Persistence.Driver)
	assert.Equal(t, "/tmp/slate.db", cfg.Persistence.Path)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestValidate_rejects_bad_values(t *testing.T) {
	cases := map[string]func(*Config){
		"port out of range":       func(c *Config) { c.Server.Port = 0 },
		"no layout directories":   func(c *Config) { c.Layouts.Directories = nil },
		"unknown driver":          func(c *Config) { c.Persistence.Driver = "redis" },
		"sqlite without path":     func(c *Config) { c.Persistence.Driver = "sqlite" },
		"negative virtualization": func(c *Config) { c.Render.VirtualizationThreshold = -1 },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
