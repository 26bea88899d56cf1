package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Addr())
	assert.Equal(t, []string{DefaultPrefix}, cfg.Prefixes)
	assert.Empty(t, cfg.Journal.Path, "journal should be disabled by default")
	assert.False(t, cfg.RateLimit.Enabled(), "rate limit should be disabled by default")
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.NoError(t, cfg.Validate())
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		logLevel string
		want     slog.Level
	}{
		{"default", false, "", slog.LevelInfo},
		{"verbose", true, "", slog.LevelDebug},
		{"explicit wins over verbose", true, "warn", slog.LevelWarn},
		{"explicit error", false, "error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Verbose = tt.verbose
			cfg.LogLevel = tt.logLevel
			assert.Equal(t, tt.want, cfg.Level())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"empty prefix", func(c *Config) { c.Prefixes = []string{""} }, "prefixes[0]"},
		{"prefix with slash", func(c *Config) { c.Prefixes = []string{"a/b"} }, "prefixes[0]"},
		{"negative rps", func(c *Config) { c.RateLimit.RPS = -1 }, "rate_limit.rps"},
		{"watch without path", func(c *Config) { c.Seed.Watch = true }, "seed.watch"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestRateLimitBurstDefault(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{RPS: 20}}
	cfg.applyDefaults()
	assert.Equal(t, 20, cfg.RateLimit.Burst)

	cfg = &Config{RateLimit: RateLimitConfig{RPS: 0.5}}
	cfg.applyDefaults()
	assert.Equal(t, 1, cfg.RateLimit.Burst)
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	data := `
server:
  host: 0.0.0.0
  port: 8080
  read_timeout: 5s
prefixes:
  - 21.T12995
  - 21.T99999
verbose: true
seed:
  path: ./seed.yaml
  watch: true
journal:
  path: ./journal.db
`
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0644))

	cfg, path, err := LoadFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, path)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout.Duration(), "write timeout default")
	assert.Len(t, cfg.Prefixes, 2)
	assert.True(t, cfg.Seed.Watch)
	assert.Equal(t, "./seed.yaml", cfg.Seed.Path)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoadFromPathInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	files := []struct {
		name, content string
	}{
		{"bad.yaml", "server: [nope"},
		{"invalid.yaml", "server:\n  port: -3\n"},
		{"duration.yaml", "server:\n  read_timeout: soon\n"},
	}
	for _, f := range files {
		t.Run(f.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, f.name)
			require.NoError(t, os.WriteFile(path, []byte(f.content), 0644))
			_, _, err := LoadFromPath(path)
			assert.Error(t, err)
		})
	}

	_, _, err := LoadFromPath(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 5050
	cfg.Prefixes = []string{"21.T1"}
	cfg.LastHandleFile = "last_handle.json"
	cfg.RateLimit = RateLimitConfig{RPS: 5, Burst: 10}

	require.NoError(t, cfg.Save(configPath))

	loaded, _, err := LoadFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, 5050, loaded.Server.Port)
	assert.Equal(t, []string{"21.T1"}, loaded.Prefixes)
	assert.Equal(t, "last_handle.json", loaded.LastHandleFile)
	assert.Equal(t, 10, loaded.RateLimit.Burst)
	assert.Equal(t, cfg.Server.IdleTimeout, loaded.Server.IdleTimeout)
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(filepath.Join(tmpDir, ConfigFileName)))

	t.Chdir(tmpDir)

	// Should find config in working directory
	assert.NotEmpty(t, FindConfigPath())

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	assert.NotEmpty(t, FindConfigPath())

	// Explicit path exists, should win
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, cfg.Save(explicit))
	t.Setenv(EnvConfigPath, explicit)
	assert.Equal(t, explicit, FindConfigPath())
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, d.Duration())

	marshaled, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", marshaled)
}

func TestSearchPaths(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/explicit.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/user")

	assert.Equal(t, []string{
		"/tmp/explicit.yaml",
		ConfigFileName,
		"handlemock.yml",
		"/xdg/handlemock/config.yaml",
		"/home/user/.config/handlemock/config.yaml",
		"/etc/handlemock/config.yaml",
	}, SearchPaths())

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, ConfigFileName, SearchPaths()[0])
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/handlemock/config.yaml", DefaultConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	assert.Equal(t, ConfigFileName, DefaultConfigPath())
}
