// Package config provides configuration management for the handle mock.
//
// Config file locations (priority order):
//  1. $HANDLEMOCK_CONFIG
//  2. ./handlemock.yaml
//  3. $XDG_CONFIG_HOME/handlemock/config.yaml
//  4. ~/.config/handlemock/config.yaml
//  5. /etc/handlemock/config.yaml
//
// With no config file the defaults reproduce the classic mock: listen on
// 127.0.0.1:5000 with prefix 21.T12995 registered.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPrefix is registered when the config names none
const DefaultPrefix = "21.T12995"

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings used when no config file exists
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if len(c.Prefixes) == 0 {
		c.Prefixes = []string{DefaultPrefix}
	}
	if c.Seed.Debounce == 0 {
		c.Seed.Debounce = Duration(500 * time.Millisecond)
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = max(1, int(c.RateLimit.RPS))
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	for i, p := range c.Prefixes {
		if p == "" || strings.Contains(p, "/") {
			errs = append(errs, fmt.Errorf("prefixes[%d] %q is not a valid prefix", i, p))
		}
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.rps must not be negative"))
	}
	if c.Seed.Watch && c.Seed.Path == "" {
		errs = append(errs, fmt.Errorf("seed.watch requires seed.path"))
	}
	if c.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Level returns the slog level: log_level when set, debug when verbose,
// info otherwise.
func (c *Config) Level() slog.Level {
	if c.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(c.LogLevel)); err == nil {
			return lvl
		}
	}
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Prefixes: %s", c.Server.Addr(), strings.Join(c.Prefixes, ","))
	if c.Seed.Path != "" {
		summary += fmt.Sprintf(", Seed: %s (watch=%t)", c.Seed.Path, c.Seed.Watch)
	}
	if c.Journal.Path != "" {
		summary += fmt.Sprintf(", Journal: %s", c.Journal.Path)
	}
	if c.RateLimit.Enabled() {
		summary += fmt.Sprintf(", RateLimit: %.1f/s burst %d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	return summary
}
